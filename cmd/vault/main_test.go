package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/onemorebsmith/soroban-vault/src/app"
	"github.com/onemorebsmith/soroban-vault/src/model"
)

const importedSeed = "SBJ3BDYMB2ICW7LQL2TTEMLMZ6TYDVQHUX6HDO7B54PEA36NKHJ6G2RM"

func TestImportSecretFromEnvironment(t *testing.T) {
	secret, err := importSecret("  "+importedSeed+"\n", strings.NewReader("ignored\n"))
	if err != nil {
		t.Fatal(err)
	}
	if secret != importedSeed {
		t.Fatalf("expected env secret, got %q", secret)
	}
}

func TestImportSecretFromStdin(t *testing.T) {
	secret, err := importSecret("", strings.NewReader(importedSeed+"\nsecond line\n"))
	if err != nil {
		t.Fatal(err)
	}
	if secret != importedSeed {
		t.Fatalf("expected first stdin line, got %q", secret)
	}

	// no trailing newline
	secret, err = importSecret("", strings.NewReader(importedSeed))
	if err != nil {
		t.Fatal(err)
	}
	if secret != importedSeed {
		t.Fatalf("expected stdin secret, got %q", secret)
	}
}

func TestImportSecretMissing(t *testing.T) {
	_, err := importSecret("", strings.NewReader("\n"))
	if model.KindOf(err) != model.KindInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestKeygenRefusesSecretArgument(t *testing.T) {
	cfg := app.Config{Keystore: filepath.Join(t.TempDir(), "keystore.json"), KeystorePassword: "pw"}
	err := keygen(cfg, []string{importedSeed})
	if model.KindOf(err) != model.KindInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if strings.Contains(err.Error(), importedSeed) {
		t.Fatalf("error echoes the secret: %s", err)
	}
	if _, statErr := os.Stat(cfg.Keystore); !os.IsNotExist(statErr) {
		t.Fatalf("keystore written from an argument secret")
	}
}
