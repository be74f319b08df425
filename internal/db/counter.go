package db

import (
	"fmt"

	"cloud.google.com/go/firestore"
)

// nextSequence reads the counter inside tx. A missing document or field starts the sequence at 1.
// The caller must write the incremented value back through writeSequence in the same transaction.
func nextSequence(tx *firestore.Transaction, ref *firestore.DocumentRef) (int64, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if isNotFound(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to read counter '%s': %w", ref.Path, err)
	}
	raw, err := snap.DataAt(counterField)
	if err != nil {
		return 1, nil
	}
	var next int64
	switch v := raw.(type) {
	case int64:
		next = v
	case float64:
		next = int64(v)
	default:
		return 0, fmt.Errorf("counter '%s' holds a non-numeric value %T", ref.Path, raw)
	}
	if next < 1 {
		next = 1
	}
	return next, nil
}

func writeSequence(tx *firestore.Transaction, ref *firestore.DocumentRef, next int64) error {
	return tx.Set(ref, map[string]interface{}{counterField: next}, firestore.MergeAll)
}
