package persistence

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/orbitwatch/eps-fdir/internal/bias"
	"github.com/orbitwatch/eps-fdir/internal/protection"
	"github.com/orbitwatch/eps-fdir/internal/quantile"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	c := bias.New(0.01, 50)
	c.Update(1, 0, 1, 0)
	q := quantile.New(0.99)
	for i := 0; i < 10; i++ {
		q.Update(float64(i))
	}
	f := protection.New(0, 8.4, 17.5, protection.DefaultConfig())

	want := FleetSnapshot{
		RunID:     "test-run",
		SavedAtMS: 12345,
		Panels: []PanelSnapshot{
			{Panel: 0, Bias: c.Save(), P2Power: q.Save(), P2Voltage: q.Save(), Protection: f.Save()},
		},
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-tripped snapshot differs (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/snapshot.json"); err == nil {
		t.Errorf("Load of a missing file returned no error")
	}
}
