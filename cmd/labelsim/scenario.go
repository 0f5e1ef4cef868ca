package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/xraph/label"
)

var errUnknownOp = errors.New("unknown op")

// scenario is a TOML list of steps:
//
//	[[step]]
//	op     = "register"
//	name   = "Alice"
//	caller = "0xalice"
//
//	[[step]]
//	op     = "distribute"
//	song   = 1
//	expect = 103
type scenario struct {
	Steps []step `toml:"step"`
}

type step struct {
	Op       string `toml:"op"`
	Caller   string `toml:"caller"`
	Name     string `toml:"name"`
	Artist   int64  `toml:"artist"`
	Title    string `toml:"title"`
	Price    int64  `toml:"price"`
	Investor string `toml:"investor"`
	Amount   int64  `toml:"amount"`
	Buyer    string `toml:"buyer"`
	Song     int64  `toml:"song"`

	// Expect is the error code the step must produce; 0 means success.
	Expect int `toml:"expect"`
}

func loadScenario(path string) (*scenario, error) {
	var sc scenario
	meta, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("decode scenario %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return &sc, nil
}

// play runs every step and writes one line per step to out. A step whose
// error code differs from Expect is reported and counted; an unknown op
// aborts the run.
func play(ctx context.Context, l *label.Label, sc *scenario, timeout time.Duration, out io.Writer) error {
	mismatches := 0
	for i, st := range sc.Steps {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		if st.Caller != "" {
			stepCtx = label.WithCaller(stepCtx, st.Caller)
		}
		summary, err := apply(stepCtx, l, st)
		cancel()
		if errors.Is(err, errUnknownOp) {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		got := label.ErrorCode(err)
		want := label.Code(st.Expect)
		switch {
		case got != want:
			mismatches++
			fmt.Fprintf(out, "step %d %s: got %s, want %s (%v)\n", i+1, st.Op, got, want, err)
		case err != nil:
			fmt.Fprintf(out, "step %d %s: %s as expected\n", i+1, st.Op, got)
		default:
			fmt.Fprintf(out, "step %d %s: ok, %s\n", i+1, st.Op, summary)
		}
	}

	if mismatches > 0 {
		return fmt.Errorf("%d of %d steps did not match expectations", mismatches, len(sc.Steps))
	}
	return nil
}

func apply(ctx context.Context, l *label.Label, st step) (string, error) {
	switch st.Op {
	case "register":
		a, err := l.RegisterArtist(ctx, st.Name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("artist %d %q owned by %s", a.ID, a.Name, a.Address), nil

	case "release":
		s, err := l.ReleaseSong(ctx, st.Artist, st.Title, st.Price)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("song %d %q at %d", s.ID, s.Title, s.Price), nil

	case "invest":
		inv, err := l.InvestInArtist(ctx, st.Investor, st.Artist, st.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s has %d in artist %d", inv.Investor, inv.Amount, inv.ArtistID), nil

	case "buy":
		s, err := l.BuySong(ctx, st.Buyer, st.Song)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("sale %s of song %d for %d", s.ID, s.SongID, s.Price), nil

	case "distribute":
		d, err := l.DistributeRoyalties(ctx, st.Song)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("paid %d to artist %d", d.Amount, d.ArtistID), nil

	case "reset":
		if err := l.Reset(ctx); err != nil {
			return "", err
		}
		return "ledger cleared", nil

	default:
		return "", fmt.Errorf("%w %q", errUnknownOp, st.Op)
	}
}
