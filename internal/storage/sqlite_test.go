package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/KevinKickass/OpenGroveCore/internal/config"
	"github.com/KevinKickass/OpenGroveCore/internal/types"
)

var (
	_ AssignmentStore = (*SQLiteStore)(nil)
	_ AssignmentStore = (*PostgresClient)(nil)
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bench := types.BoardAssignment{
		Name:    "bench",
		IOP:     "iop_pmoda",
		Variant: "pmod",
		Ports: types.Assignment{
			"G1": types.One("grove_servo"),
			"G4": types.Many("grove_led_stick", "grove_oled"),
			"G3": types.Many(),
		},
	}
	garden := types.BoardAssignment{
		Name:    "garden",
		IOP:     "iop_arduino",
		Variant: "arduino_seeed",
		Ports:   types.Assignment{"I2C": types.One("grove_adc@48.grove_light")},
	}

	id, err := store.SaveAssignment(ctx, bench)
	if err != nil {
		t.Fatalf("SaveAssignment: %v", err)
	}
	if _, err := store.SaveAssignment(ctx, garden); err != nil {
		t.Fatalf("SaveAssignment: %v", err)
	}

	boards, err := store.LoadAllAssignments(ctx)
	if err != nil {
		t.Fatalf("LoadAllAssignments: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("got %d assignments, want 2", len(boards))
	}
	if !reflect.DeepEqual(boards[0], bench) {
		t.Fatalf("bench = %+v, want %+v", boards[0], bench)
	}
	if !reflect.DeepEqual(boards[1], garden) {
		t.Fatalf("garden = %+v, want %+v", boards[1], garden)
	}

	bench.Ports = types.Assignment{"G2": types.One("grove_buzzer")}
	again, err := store.SaveAssignment(ctx, bench)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if again != id {
		t.Fatalf("update changed id: %s != %s", again, id)
	}

	boards, _ = store.LoadAllAssignments(ctx)
	if len(boards) != 2 || !reflect.DeepEqual(boards[0].Ports, bench.Ports) {
		t.Fatalf("after update = %+v", boards)
	}
}

func TestSQLiteDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	board := types.BoardAssignment{Name: "bench", IOP: "iop_pmoda", Variant: "pmod", Ports: types.Assignment{}}
	if _, err := store.SaveAssignment(ctx, board); err != nil {
		t.Fatalf("SaveAssignment: %v", err)
	}

	if err := store.DeleteAssignment(ctx, "bench"); err != nil {
		t.Fatalf("DeleteAssignment: %v", err)
	}
	if err := store.DeleteAssignment(ctx, "bench"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}

	boards, err := store.LoadAllAssignments(ctx)
	if err != nil {
		t.Fatalf("LoadAllAssignments: %v", err)
	}
	if len(boards) != 0 {
		t.Fatalf("got %d assignments after delete", len(boards))
	}
}

func TestOpen(t *testing.T) {
	store, err := Open(&config.Config{Storage: config.StorageConfig{Driver: "none"}})
	if err != nil || store != nil {
		t.Fatalf("none = %v, %v", store, err)
	}

	path := filepath.Join(t.TempDir(), "ogc.db")
	store, err = Open(&config.Config{Storage: config.StorageConfig{Driver: "sqlite", SQLitePath: path}})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("sqlite driver returned %T", store)
	}

	if _, err := Open(&config.Config{Storage: config.StorageConfig{Driver: "etcd"}}); err == nil {
		t.Fatal("expected error")
	}
}
