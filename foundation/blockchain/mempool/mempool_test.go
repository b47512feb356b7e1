package mempool_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func tx(amount uint64) database.Tx {
	return database.Tx{
		Outputs:   []database.UTXO{database.NewUTXO("kennedy", amount, []byte{1})},
		TimeStamp: int64(amount),
	}
}

// =============================================================================

func Test_PutDrain(t *testing.T) {
	t.Log("Given the need to batch transactions in the order they were added.")
	{
		mp, err := mempool.New(3)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the mempool: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the mempool.", success)

		ctx := context.Background()

		if !mp.IsEmpty() || mp.IsFull() {
			t.Fatalf("\t%s\tShould start empty.", failed)
		}

		for i := range 3 {
			if err := mp.Put(ctx, tx(uint64(i+1))); err != nil {
				t.Fatalf("\t%s\tShould be able to put a transaction: %v", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to put transactions.", success)

		if !mp.IsFull() || mp.Count() != 3 {
			t.Fatalf("\t%s\tShould be full after capacity puts.", failed)
		}

		for i, tx := range mp.Copy() {
			if tx.Outputs[0].Amount != uint64(i+1) {
				t.Fatalf("\t%s\tShould keep insertion order in the copy.", failed)
			}
		}

		batch, err := mp.DrainAll(ctx)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to drain: %v", failed, err)
		}

		if len(batch) != 3 {
			t.Fatalf("\t%s\tShould drain a full batch, got %d.", failed, len(batch))
		}

		for i, tx := range batch {
			if tx.Outputs[0].Amount != uint64(i+1) {
				t.Fatalf("\t%s\tShould drain in insertion order.", failed)
			}
		}
		t.Logf("\t%s\tShould drain a full batch in insertion order.", success)

		if !mp.IsEmpty() {
			t.Fatalf("\t%s\tShould be empty after a drain.", failed)
		}
	}
}

func Test_ProducerBlocksWhenFull(t *testing.T) {
	mp, err := mempool.New(1)
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %s", err)
	}

	ctx := context.Background()
	if err := mp.Put(ctx, tx(1)); err != nil {
		t.Fatalf("Should be able to put a transaction: %s", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- mp.Put(ctx, tx(2))
	}()

	select {
	case <-done:
		t.Fatalf("Should block the producer while the pool is full.")
	case <-time.After(100 * time.Millisecond):
	}

	batch, err := mp.DrainAll(ctx)
	if err != nil || len(batch) != 1 || batch[0].Outputs[0].Amount != 1 {
		t.Fatalf("Should drain the first transaction: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Should wake the producer after a drain: %s", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Should wake the producer after a drain.")
	}

	if mp.Count() != 1 {
		t.Fatalf("Should hold the second transaction.")
	}
}

func Test_ConsumerBlocksUntilFull(t *testing.T) {
	mp, err := mempool.New(2)
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %s", err)
	}

	ctx := context.Background()

	type result struct {
		batch []database.Tx
		err   error
	}
	done := make(chan result, 1)
	go func() {
		batch, err := mp.DrainAll(ctx)
		done <- result{batch, err}
	}()

	if err := mp.Put(ctx, tx(1)); err != nil {
		t.Fatalf("Should be able to put a transaction: %s", err)
	}

	select {
	case <-done:
		t.Fatalf("Should not drain a partial batch.")
	case <-time.After(100 * time.Millisecond):
	}

	if err := mp.Put(ctx, tx(2)); err != nil {
		t.Fatalf("Should be able to put a transaction: %s", err)
	}

	select {
	case r := <-done:
		if r.err != nil || len(r.batch) != 2 {
			t.Fatalf("Should drain the full batch: %v", r.err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Should wake the consumer once the pool is full.")
	}
}

func Test_Cancellation(t *testing.T) {
	mp, err := mempool.New(1)
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := mp.DrainAll(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Should stop waiting to drain when the context expires: %v", err)
	}

	if err := mp.Put(context.Background(), tx(1)); err != nil {
		t.Fatalf("Should be able to put a transaction: %s", err)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()

	if err := mp.Put(ctx2, tx(2)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Should stop waiting to put when the context expires: %v", err)
	}

	if mp.Count() != 1 {
		t.Fatalf("Should not add a transaction after a cancelled put.")
	}
}

func Test_Shutdown(t *testing.T) {
	mp, err := mempool.New(2)
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %s", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := mp.DrainAll(context.Background())
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	mp.Shutdown()

	select {
	case err := <-done:
		if !errors.Is(err, mempool.ErrClosed) {
			t.Fatalf("Should get ErrClosed after a shutdown: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Should wake the consumer on shutdown.")
	}

	if err := mp.Put(context.Background(), tx(1)); !errors.Is(err, mempool.ErrClosed) {
		t.Fatalf("Should not accept transactions after a shutdown: %v", err)
	}
}

func Test_Capacity(t *testing.T) {
	if _, err := mempool.New(0); err == nil {
		t.Fatalf("Should not construct a mempool without capacity.")
	}
}
