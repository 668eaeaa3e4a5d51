package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/vulnscout/internal/model"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("scan not found")

// Store persists scans. List returns newest first; a limit <= 0 returns
// every scan.
type Store interface {
	Insert(ctx context.Context, scan *model.Scan) error
	List(ctx context.Context, limit int) ([]model.Scan, error)
	Get(ctx context.Context, id string) (*model.Scan, error)
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the store for driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLite(path)
	case DriverMemory:
		return NewMemory(0), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
}

func cloneScan(s *model.Scan) model.Scan {
	c := *s
	if s.PRNumber != nil {
		n := *s.PRNumber
		c.PRNumber = &n
	}
	c.Findings = append([]model.Finding{}, s.Findings...)
	return c
}
