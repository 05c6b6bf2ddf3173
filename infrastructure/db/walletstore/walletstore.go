// Package walletstore keeps the spendable outputs of a wallet in a LevelDB
// database and provides them to the transaction builder.
package walletstore

import (
	"context"
	"sort"
	"sync"

	"github.com/dfinet/dfitx/domain/txbuilder"
	"github.com/dfinet/dfitx/domain/wire"
	"github.com/dfinet/dfitx/util"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"
	ldbUtil "github.com/syndtr/goleveldb/leveldb/util"
)

var (
	// ErrNotFound is returned for outpoints the store does not hold.
	ErrNotFound = errors.New("output not found")

	// ErrCorruptRecord is returned for stored outputs that cannot be
	// decoded.
	ErrCorruptRecord = errors.New("corrupt output record")
)

// Store is a LevelDB-backed set of spendable outputs. Outputs handed out for
// a transaction can be reserved with MarkSpent so that concurrent builds
// against the same wallet do not spend them twice.
type Store struct {
	ldb *leveldb.DB

	// mu serializes every write, so that read-modify-write sequences on
	// records never interleave with other writes.
	mu sync.Mutex
}

// Open opens the store at path, creating it if it does not exist.
func Open(path string) (*Store, error) {
	// Open leveldb. If it doesn't exist, create it.
	ldb, err := leveldb.OpenFile(path, Options())

	// If the database is corrupted, attempt to recover.
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warnf("LevelDB corruption detected for path %s: %s",
			path, err)
		var recoverErr error
		ldb, recoverErr = leveldb.RecoverFile(path, nil)
		if recoverErr != nil {
			return nil, recoverErr
		}
		log.Warnf("LevelDB recovered from corruption for path %s",
			path)
		err = nil
	}

	// If the database cannot be opened for any other
	// reason, return the error as-is.
	if err != nil {
		return nil, err
	}

	return &Store{ldb: ldb}, nil
}

// OpenMemory opens a store that lives in memory only.
func OpenMemory() (*Store, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), Options())
	if err != nil {
		return nil, err
	}
	return &Store{ldb: ldb}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.ldb.Close()
}

// Put adds output to the store, replacing any output with the same outpoint.
// The output is not reserved.
func (s *Store) Put(output *txbuilder.SpendableOutput) error {
	value, err := serializeRecord(&record{output: output})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ldb.Put(outputKey(&output.Outpoint), value, nil)
}

// Get returns the output at outpoint and whether it is reserved.
func (s *Store) Get(outpoint *wire.Outpoint) (*txbuilder.SpendableOutput, bool, error) {
	r, err := s.get(outpoint)
	if err != nil {
		return nil, false, err
	}
	return r.output, r.reserved, nil
}

func (s *Store) get(outpoint *wire.Outpoint) (*record, error) {
	key := outputKey(outpoint)
	value, err := s.ldb.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "%s", outpoint)
		}
		return nil, err
	}
	return deserializeRecord(key, value)
}

// Remove deletes the outputs at outpoints. Missing outpoints are ignored.
func (s *Store) Remove(outpoints ...wire.Outpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	for i := range outpoints {
		batch.Delete(outputKey(&outpoints[i]))
	}
	return s.ldb.Write(batch, nil)
}

// MarkSpent reserves the outputs at outpoints so that Collect no longer
// returns them. It fails without reserving anything if an outpoint is
// missing or already reserved.
func (s *Store) MarkSpent(outpoints ...wire.Outpoint) error {
	return s.setReserved(outpoints, true)
}

// Release undoes MarkSpent, for transactions that were built but never
// broadcast.
func (s *Store) Release(outpoints ...wire.Outpoint) error {
	return s.setReserved(outpoints, false)
}

func (s *Store) setReserved(outpoints []wire.Outpoint, reserved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	for i := range outpoints {
		r, err := s.get(&outpoints[i])
		if err != nil {
			return err
		}
		if r.reserved == reserved {
			return errors.Errorf("output %s is already in the requested reservation state", outpoints[i])
		}
		r.reserved = reserved
		value, err := serializeRecord(r)
		if err != nil {
			return err
		}
		batch.Put(outputKey(&outpoints[i]), value)
	}
	return s.ldb.Write(batch, nil)
}

// ApplyTransaction removes the outputs tx spends and adds the outputs of tx
// that pay to a script isMine accepts.
func (s *Store) ApplyTransaction(tx *wire.MsgTx, isMine func(script []byte) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	for _, txIn := range tx.TxIn {
		batch.Delete(outputKey(&txIn.PreviousOutpoint))
	}
	txID := tx.TxID()
	for i, txOut := range tx.TxOut {
		if !isMine(txOut.ScriptPubKey) {
			continue
		}
		output := &txbuilder.SpendableOutput{
			Outpoint:     *wire.NewOutpoint(&txID, uint32(i)),
			Value:        util.Amount(txOut.Value),
			ScriptPubKey: txOut.ScriptPubKey,
			TokenID:      txOut.TokenID,
		}
		value, err := serializeRecord(&record{output: output})
		if err != nil {
			return err
		}
		batch.Put(outputKey(&output.Outpoint), value)
	}
	log.Debugf("Applying transaction %s: %d spent, %d outputs", txID, len(tx.TxIn), batch.Len()-len(tx.TxIn))
	return s.ldb.Write(batch, nil)
}

// forEach calls f on every stored output in key order.
func (s *Store) forEach(f func(r *record) error) error {
	iterator := s.ldb.NewIterator(ldbUtil.BytesPrefix(outputKeyPrefix), nil)
	defer iterator.Release()
	for iterator.Next() {
		r, err := deserializeRecord(iterator.Key(), iterator.Value())
		if err != nil {
			return err
		}
		err = f(r)
		if err != nil {
			return err
		}
	}
	return iterator.Error()
}

// Collect implements txbuilder.PrevoutProvider. It returns every unreserved
// native-coin output, largest first.
func (s *Store) Collect(ctx context.Context, minimum util.Amount) ([]*txbuilder.SpendableOutput, error) {
	var outputs []*txbuilder.SpendableOutput
	err := s.forEach(func(r *record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.reserved || r.output.TokenID != 0 {
			return nil
		}
		outputs = append(outputs, r.output)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].Value > outputs[j].Value
	})
	log.Tracef("Collected %d outputs for %s", len(outputs), minimum)
	return outputs, nil
}

// Balance returns the total value of the unreserved native-coin outputs.
func (s *Store) Balance() (util.Amount, error) {
	var balance util.Amount
	err := s.forEach(func(r *record) error {
		if !r.reserved && r.output.TokenID == 0 {
			balance += r.output.Value
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
