package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipvault/clipvault/common/clerr"
)

func pgError(code string) error {
	return &pgconn.PgError{Code: code, Message: "boom"}
}

func TestStoreErr_TransientClassification(t *testing.T) {
	for _, code := range []string{codeSerializationFail, codeDeadlockDetected, "08006", "08001"} {
		err := storeErr("test op", pgError(code))
		if !errors.Is(err, clerr.ErrTransientStore) {
			t.Errorf("code %s: got %v, want ErrTransientStore", code, err)
		}
	}
}

func TestStoreErr_InvalidInputClassification(t *testing.T) {
	for _, code := range []string{codeCheckViolation, codeInvalidTextRep, codeForeignKeyViolation} {
		err := storeErr("test op", pgError(code))
		if !errors.Is(err, clerr.ErrInvalidInput) {
			t.Errorf("code %s: got %v, want ErrInvalidInput", code, err)
		}
	}
}

func TestStoreErr_PassesThroughUnknown(t *testing.T) {
	cause := errors.New("wire torn")
	err := storeErr("test op", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if errors.Is(err, clerr.ErrTransientStore) || errors.Is(err, clerr.ErrInvalidInput) {
		t.Fatalf("unknown error misclassified: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(pgError(codeUniqueViolation)) {
		t.Fatal("expected unique violation detection")
	}
	if isUniqueViolation(pgError(codeForeignKeyViolation)) {
		t.Fatal("foreign key violation misread as unique violation")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Fatal("plain error misread as unique violation")
	}
}
