package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// Layout is what the workbench remembers about a view between sessions.
// Pane contents are never persisted, only sizes and split flags.
type Layout struct {
	// Widths maps a pane or column name to its width in cells
	Widths           map[string]int `json:"widths,omitempty"`
	MainSplit        bool           `json:"mainSplit"`
	RightSplit       bool           `json:"rightSplit"`
	RightPaneVisible bool           `json:"rightPaneVisible"`
}

// Cache stores one Layout per view name in badger
type Cache struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// Open opens (or creates) the layout cache at dir
func Open(dir string, logger logrus.FieldLogger) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}
	return open(opts, logger)
}

// OpenInMemory opens a cache that lives only as long as the process
func OpenInMemory(logger logrus.FieldLogger) (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}
	return open(opts, logger)
}

func open(opts badger.Options, logger logrus.FieldLogger) (*Cache, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout cache at %s: %w", opts.Dir, err)
	}
	return &Cache{
		db:  db,
		log: logger.WithField("component", "layout"),
	}, nil
}

// Close closes the underlying badger database
func (c *Cache) Close() error {
	return c.db.Close()
}

func viewKey(view string) []byte {
	return []byte("layout:view:" + view)
}

// Load returns the saved layout for a view. A missing or unreadable entry
// yields the zero layout.
func (c *Cache) Load(ctx context.Context, view string) (Layout, error) {
	if err := ctx.Err(); err != nil {
		return Layout{}, fmt.Errorf("failed to load layout %s: %w", view, err)
	}
	var l Layout
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(viewKey(view))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &l); err != nil {
				c.log.WithError(err).WithField("view", view).Warn("discarding corrupt layout")
				l = Layout{}
			}
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Layout{}, nil
	}
	if err != nil {
		return Layout{}, fmt.Errorf("failed to load layout %s: %w", view, err)
	}
	return l, nil
}

// Save stores the layout for a view, replacing any previous one
func (c *Cache) Save(ctx context.Context, view string, l Layout) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to save layout %s: %w", view, err)
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(viewKey(view), data))
	})
	if err != nil {
		return fmt.Errorf("failed to save layout %s: %w", view, err)
	}
	c.log.WithField("view", view).Debug("layout saved")
	return nil
}

// Delete forgets a view's layout. Deleting a missing view is a no-op.
func (c *Cache) Delete(ctx context.Context, view string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to delete layout %s: %w", view, err)
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(viewKey(view))
	})
	if err != nil {
		return fmt.Errorf("failed to delete layout %s: %w", view, err)
	}
	return nil
}

// badgerLogger adapts logrus.FieldLogger to badger's logger interface
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
