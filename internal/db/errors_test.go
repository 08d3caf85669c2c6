package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_WrapsAndFormats(t *testing.T) {
	err := fmt.Errorf("get page: %w", &Error{Op: OpSelect, Err: ErrKeyNotFound})

	if !errors.Is(err, ErrKeyNotFound) {
		t.Error("expected errors.Is to reach the sentinel")
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) {
		t.Fatal("expected *db.Error in chain")
	}
	if dbErr.Op != OpSelect {
		t.Errorf("Op = %q", dbErr.Op)
	}
	if dbErr.Error() != "SELECT: db: key not found" {
		t.Errorf("Error() = %q", dbErr.Error())
	}
}
