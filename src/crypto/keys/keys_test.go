package keys

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}

	dump := DumpPrivateKey(key)
	parsed, err := ParsePrivateKey(dump)
	if err != nil {
		t.Fatal(err)
	}

	if parsed.D.Cmp(key.D) != 0 {
		t.Fatal("parsed key D should match")
	}
	if PublicKeyHex(&parsed.PublicKey) != PublicKeyHex(&key.PublicKey) {
		t.Fatal("derived public keys should match")
	}
}

func TestSignVerify(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}

	msg := []byte("hello")
	r, s, err := Sign(key, msg)
	if err != nil {
		t.Fatal(err)
	}

	if !Verify(&key.PublicKey, msg, r, s) {
		t.Fatal("signature should verify")
	}
	if Verify(&key.PublicKey, []byte("tampered"), r, s) {
		t.Fatal("signature should not verify altered data")
	}
}

func TestSimpleKeyfile(t *testing.T) {
	dir, err := ioutil.TempDir("", "keys")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	keyfile := NewSimpleKeyfile(filepath.Join(dir, "priv_key"))

	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}
	if err := keyfile.WriteKey(key); err != nil {
		t.Fatal(err)
	}

	read, err := keyfile.ReadKey()
	if err != nil {
		t.Fatal(err)
	}
	if read.D.Cmp(key.D) != 0 {
		t.Fatal("key read back should match")
	}
}

func TestPublicKeyID(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}

	id1 := PublicKeyID(FromPublicKey(&key.PublicKey))
	id2 := PublicKeyID(FromPublicKey(&key.PublicKey))
	if id1 != id2 {
		t.Fatal("IDs should be deterministic")
	}
}
