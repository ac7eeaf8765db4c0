package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/gamesession/internal/config"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/session"
)

// LoadState reads the state snapshot straight from the configured store.
func LoadState(ctx context.Context, cfg config.Config) (domain.StateSnapshot, error) {
	backend, err := OpenStore(cfg.Store)
	if err != nil {
		return domain.StateSnapshot{}, err
	}
	defer backend.Close()

	entries, err := session.NewManager(backend.Store).List(ctx)
	if err != nil {
		return domain.StateSnapshot{}, err
	}
	return domain.StateSnapshot{
		ServiceAddress: domain.ActorID(cfg.ServiceAddress),
		Sessions:       entries,
	}, nil
}

// FetchState asks a running server for its state snapshot.
func FetchState(ctx context.Context, serverURL string) (domain.StateSnapshot, error) {
	var snap domain.StateSnapshot
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+"/state", nil)
	if err != nil {
		return snap, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return snap, fmt.Errorf("error querying state: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("error querying state: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("error decoding state: %w", err)
	}
	return snap, nil
}

// WriteState prints snap as indented JSON.
func WriteState(w io.Writer, snap domain.StateSnapshot) error {
	if snap.Sessions == nil {
		snap.Sessions = []domain.SessionEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ListSessions prints one line per session.
func ListSessions(w io.Writer, entries []domain.SessionEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No active sessions found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tPHASE\tATTEMPTS\tSESSION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Player, describePhase(e.Record.Phase), e.Record.AttemptCount, orDash(string(e.Record.SessionID)))
	}
	return tw.Flush()
}

// InspectSession prints the full record of one player.
func InspectSession(ctx context.Context, cfg config.Config, player domain.ActorID, w io.Writer) error {
	backend, err := OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	rec, err := backend.Store.Load(ctx, player)
	if err != nil {
		return fmt.Errorf("error loading session %q: %w", player, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(domain.SessionEntry{Player: player, Record: rec})
}

func describePhase(p domain.Phase) string {
	if c, ok := p.(domain.Concluded); ok {
		return fmt.Sprintf("%s (%s)", c.Name(), c.Outcome)
	}
	if p == nil {
		return "-"
	}
	return string(p.Name())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
