package containers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaninAndrea/sixlet/pkg/containers"
)

func TestResult(t *testing.T) {
	ok := containers.NewResult(42, nil)
	if ok.IsErr() || ok.Unwrap() != 42 {
		t.Errorf("NewResult(42, nil) = %+v, want Ok(42)", ok)
	}

	boom := errors.New("boom")
	res := containers.NewResult(0, boom)
	if !res.IsErr() || !errors.Is(res.Err, boom) {
		t.Errorf("NewResult(0, boom) = %+v, want Err(boom)", res)
	}

	defer func() {
		if recover() == nil {
			t.Error("Unwrap on an Err result did not panic")
		}
	}()
	res.Unwrap()
}

func TestFutureResolvedBeforeAwait(t *testing.T) {
	f := containers.NewFuture[string]()
	f.Resolve(containers.Ok("done"))

	res := f.Await(context.Background())
	if res.IsErr() || res.Value != "done" {
		t.Errorf("Await = %+v, want Ok(done)", res)
	}
}

func TestFutureResolvedFromAnotherGoroutine(t *testing.T) {
	f := containers.NewFuture[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Resolve(containers.Ok(7))
	}()

	if res := f.Await(context.Background()); res.Unwrap() != 7 {
		t.Errorf("Await = %+v, want Ok(7)", res)
	}
}

func TestFutureAwaitCancelled(t *testing.T) {
	f := containers.NewFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.Await(ctx)
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Await on a cancelled context = %+v, want context.Canceled", res)
	}
}
