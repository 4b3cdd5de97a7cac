package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/cortex-go/internal/graph"
)

// Key layout. Note IDs and project IDs must not contain '|'.
const (
	prefixNote    = "note:" // note:<noteID>
	prefixSynapse = "syn:"  // syn:<source>|<target>
	prefixReverse = "rsyn:" // rsyn:<target>|<source>
	prefixFile    = "nf:"   // nf:<filePath>|<noteID>
)

// conflictRetries bounds optimistic-transaction retries on write conflicts.
const conflictRetries = 16

// BadgerStore is a BadgerDB-backed GraphStore.
//
// Badger transactions give per-call snapshot reads; energy increments and
// synapse upserts run as optimistic transactions retried on conflict, so
// concurrent reinforcement hooks never lose updates.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens or creates the BadgerDB database at the given path.
func OpenBadgerStore(path string, readOnly bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger DB: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Close releases all resources held by the store.
func (b *BadgerStore) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func codeNodeKey(projectID, nodeID string) []byte {
	return []byte("g:" + projectID + ":n:" + nodeID)
}

func codeEdgeKey(projectID, edgeID string) []byte {
	return []byte("g:" + projectID + ":e:" + edgeID)
}

func metricsKey(projectID, nodeID string) []byte {
	return []byte("m:" + projectID + ":" + nodeID)
}

func noteKey(noteID string) []byte {
	return []byte(prefixNote + noteID)
}

func synapseKey(source, target string) []byte {
	return []byte(prefixSynapse + source + "|" + target)
}

func reverseSynapseKey(source, target string) []byte {
	return []byte(prefixReverse + target + "|" + source)
}

func fileLinkKey(filePath, noteID string) []byte {
	return []byte(prefixFile + filePath + "|" + noteID)
}

// FetchProjectGraph implements GraphStore. Nodes and edges are read within a
// single transaction, so the result is a consistent snapshot.
func (b *BadgerStore) FetchProjectGraph(ctx context.Context, projectID string) (*ProjectGraph, error) {
	pg := &ProjectGraph{}

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("g:" + projectID + ":n:")
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			var node graph.CodeNode
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &node)
			}); err != nil {
				it.Close()
				return fmt.Errorf("unmarshaling node %s: %w", it.Item().Key(), err)
			}
			if node.ID == "" || node.Type == "" {
				it.Close()
				return fmt.Errorf("malformed node record %s: missing required fields", it.Item().Key())
			}
			pg.Nodes = append(pg.Nodes, &node)
		}
		it.Close()

		opts.Prefix = []byte("g:" + projectID + ":e:")
		it = txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var edge graph.CodeEdge
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &edge)
			}); err != nil {
				return fmt.Errorf("unmarshaling edge %s: %w", it.Item().Key(), err)
			}
			if edge.ID == "" || edge.Source == "" || edge.Target == "" {
				return fmt.Errorf("malformed edge record %s: missing required fields", it.Item().Key())
			}
			pg.Edges = append(pg.Edges, &edge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pg, nil
}

// AddCodeNodes implements GraphStore.
func (b *BadgerStore) AddCodeNodes(ctx context.Context, projectID string, nodes []*graph.CodeNode) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, node := range nodes {
		data, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("marshaling node: %w", err)
		}
		if err := wb.Set(codeNodeKey(projectID, node.ID), data); err != nil {
			return fmt.Errorf("setting node: %w", err)
		}
	}
	return wb.Flush()
}

// AddCodeEdges implements GraphStore.
func (b *BadgerStore) AddCodeEdges(ctx context.Context, projectID string, edges []*graph.CodeEdge) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, edge := range edges {
		data, err := json.Marshal(edge)
		if err != nil {
			return fmt.Errorf("marshaling edge: %w", err)
		}
		if err := wb.Set(codeEdgeKey(projectID, edge.ID), data); err != nil {
			return fmt.Errorf("setting edge: %w", err)
		}
	}
	return wb.Flush()
}

// BatchWriteNodeMetrics implements GraphStore. The whole update is flushed
// as one write batch to minimize the window of partial visibility.
func (b *BadgerStore) BatchWriteNodeMetrics(ctx context.Context, projectID string, updates map[string]NodeMetricsUpdate) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for nodeID, update := range updates {
		data, err := json.Marshal(update)
		if err != nil {
			return fmt.Errorf("marshaling metrics: %w", err)
		}
		if err := wb.Set(metricsKey(projectID, nodeID), data); err != nil {
			return fmt.Errorf("setting metrics: %w", err)
		}
	}
	return wb.Flush()
}

// GetNodeMetrics implements GraphStore.
func (b *BadgerStore) GetNodeMetrics(ctx context.Context, projectID, nodeID string) (*NodeMetricsUpdate, error) {
	var update NodeMetricsUpdate
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metricsKey(projectID, nodeID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &update)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &update, nil
}

// PutNote implements GraphStore. File link index entries are written in the
// same transaction as the note itself.
func (b *BadgerStore) PutNote(ctx context.Context, note *Note) error {
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshaling note: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(noteKey(note.ID), data); err != nil {
			return err
		}
		for _, f := range note.Files {
			if err := txn.Set(fileLinkKey(f, note.ID), []byte(note.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetNote implements GraphStore.
func (b *BadgerStore) GetNote(ctx context.Context, noteID string) (*Note, error) {
	var note Note
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(noteKey(noteID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &note)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// ListNotes implements GraphStore. Badger iterates keys in sorted order, so
// the result is ordered by ascending note ID.
func (b *BadgerStore) ListNotes(ctx context.Context) ([]*Note, error) {
	var notes []*Note
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixNote)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var note Note
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &note)
			}); err != nil {
				return fmt.Errorf("unmarshaling note %s: %w", it.Item().Key(), err)
			}
			notes = append(notes, &note)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// GetNotesByFile implements GraphStore.
func (b *BadgerStore) GetNotesByFile(ctx context.Context, filePath string) ([]*Note, error) {
	var ids []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFile + filePath + "|")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notes := make([]*Note, 0, len(ids))
	for _, id := range ids {
		note, err := b.GetNote(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // dangling link; note was removed
		}
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// IncrementEnergy implements GraphStore. Runs as an optimistic
// read-modify-write transaction, retried on conflict.
func (b *BadgerStore) IncrementEnergy(ctx context.Context, noteID string, delta float64) error {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err := b.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(noteKey(noteID))
			if err != nil {
				return err
			}
			var note Note
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &note)
			}); err != nil {
				return err
			}
			note.Energy += delta
			data, err := json.Marshal(&note)
			if err != nil {
				return err
			}
			return txn.Set(noteKey(noteID), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return fmt.Errorf("incrementing energy for %s: too many conflicts", noteID)
}

// GetOutgoingSynapses implements GraphStore.
func (b *BadgerStore) GetOutgoingSynapses(ctx context.Context, noteID string) ([]Synapse, error) {
	return b.scanSynapses(prefixSynapse + noteID + "|")
}

// GetIncomingSynapses implements GraphStore.
func (b *BadgerStore) GetIncomingSynapses(ctx context.Context, noteID string) ([]Synapse, error) {
	return b.scanSynapses(prefixReverse + noteID + "|")
}

// scanSynapses reads every full synapse record under the given index prefix.
func (b *BadgerStore) scanSynapses(prefix string) ([]Synapse, error) {
	var synapses []Synapse
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var syn Synapse
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &syn)
			}); err != nil {
				return fmt.Errorf("unmarshaling synapse %s: %w", it.Item().Key(), err)
			}
			synapses = append(synapses, syn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return synapses, nil
}

// GetSynapse implements GraphStore.
func (b *BadgerStore) GetSynapse(ctx context.Context, source, target string) (*Synapse, error) {
	var syn Synapse
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(synapseKey(source, target))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &syn)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &syn, nil
}

// UpsertSynapse implements GraphStore. Both the forward and reverse index
// entries are updated in one transaction, retried on conflict.
func (b *BadgerStore) UpsertSynapse(ctx context.Context, source, target string, weightDelta float64) error {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err := b.db.Update(func(txn *badger.Txn) error {
			syn := Synapse{Source: source, Target: target}

			item, err := txn.Get(synapseKey(source, target))
			switch {
			case err == nil:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &syn)
				}); err != nil {
					return err
				}
			case errors.Is(err, badger.ErrKeyNotFound):
				// New synapse; starts at zero weight.
			default:
				return err
			}

			syn.Weight += weightDelta
			data, err := json.Marshal(&syn)
			if err != nil {
				return err
			}
			if err := txn.Set(synapseKey(source, target), data); err != nil {
				return err
			}
			return txn.Set(reverseSynapseKey(source, target), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("upserting synapse %s->%s: too many conflicts", source, target)
}
