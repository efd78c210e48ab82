package wallet

import (
	"crypto/rand"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	keystoreVers = 1
)

var ErrBadPassword = errors.New("keystore password is incorrect")

// keystoreFile is the on-disk form: the secret seed sealed with a key derived from the password
type keystoreFile struct {
	Version    int    `json:"version"`
	Address    string `json:"address"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func deriveKey(password string, salt []byte) (*[32]byte, error) {
	raw, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, errors.Wrap(err, "failed deriving keystore key")
	}
	key := [32]byte{}
	copy(key[:], raw)
	return &key, nil
}

// CreateKeystore seals kp's seed into path. An existing file is never overwritten.
func CreateKeystore(path string, password string, kp *keypair.Full) error {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return errors.Wrap(err, "failed generating salt")
	}
	nonce := [24]byte{}
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrap(err, "failed generating nonce")
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(keystoreFile{
		Version:    keystoreVers,
		Address:    kp.Address(),
		Salt:       salt,
		Nonce:      nonce[:],
		Ciphertext: secretbox.Seal(nil, []byte(kp.Seed()), &nonce, key),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed encoding keystore")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrapf(err, "failed creating keystore %s", path)
	}
	defer f.Close()
	if _, err := f.Write(encoded); err != nil {
		return errors.Wrapf(err, "failed writing keystore %s", path)
	}
	return nil
}

// OpenKeystore unseals the keypair stored at path
func OpenKeystore(path string, password string) (*keypair.Full, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading keystore %s", path)
	}
	ks := keystoreFile{}
	if err := json.Unmarshal(raw, &ks); err != nil {
		return nil, errors.Wrapf(err, "failed parsing keystore %s", path)
	}
	if ks.Version != keystoreVers {
		return nil, errors.Errorf("unsupported keystore version %d", ks.Version)
	}
	if len(ks.Nonce) != 24 {
		return nil, errors.Errorf("keystore %s has a malformed nonce", path)
	}
	key, err := deriveKey(password, ks.Salt)
	if err != nil {
		return nil, err
	}
	nonce := [24]byte{}
	copy(nonce[:], ks.Nonce)
	seed, ok := secretbox.Open(nil, ks.Ciphertext, &nonce, key)
	if !ok {
		return nil, ErrBadPassword
	}
	kp, err := keypair.ParseFull(string(seed))
	if err != nil {
		return nil, errors.Wrap(err, "keystore holds an invalid seed")
	}
	if kp.Address() != ks.Address {
		return nil, errors.Errorf("keystore address %s does not match its seed", ks.Address)
	}
	return kp, nil
}
