package matrix

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/term"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// credentialFile is the on-disk session: the access token sealed with a key
// derived from the login password, so a stolen file alone is useless.
type credentialFile struct {
	Homeserver string   `json:"homeserver"`
	UserID     string   `json:"user_id"`
	DeviceID   string   `json:"device_id"`
	Sealed     []byte   `json:"sealed"`
	Nonce      [24]byte `json:"nonce"`
	Salt       []byte   `json:"salt"`
}

func deriveKey(password string, salt []byte) [32]byte {
	derived := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	var key [32]byte
	copy(key[:], derived)
	return key
}

func readPassword() (string, error) {
	if password := os.Getenv("MATRIX_PASSWORD"); password != "" {
		return password, nil
	}
	fmt.Print("Enter Matrix password (or set MATRIX_PASSWORD): ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func loadSession(path, password string) (*mautrix.Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var stored credentialFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if len(stored.Salt) == 0 {
		return nil, errors.New("credentials file has no salt; delete it and log in again")
	}

	key := deriveKey(password, stored.Salt)
	token, ok := secretbox.Open(nil, stored.Sealed, &stored.Nonce, &key)
	if !ok {
		return nil, errors.New("failed to unseal credentials; wrong password?")
	}

	client, err := mautrix.NewClient(stored.Homeserver, id.UserID(stored.UserID), string(token))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	client.DeviceID = id.DeviceID(stored.DeviceID)
	return client, nil
}

func loginAndStore(ctx context.Context, cfg *Config, password string, log zerolog.Logger) (*mautrix.Client, error) {
	log.Info().Str("homeserver", cfg.Homeserver).Str("user_id", cfg.UserID).Msg("Logging in")

	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	resp, err := client.Login(ctx, &mautrix.ReqLogin{
		Type: "m.login.password",
		Identifier: mautrix.UserIdentifier{
			Type: "m.id.user",
			User: cfg.UserID,
		},
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	client.AccessToken = resp.AccessToken
	client.DeviceID = resp.DeviceID

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key := deriveKey(password, salt)
	stored := credentialFile{
		Homeserver: cfg.Homeserver,
		UserID:     cfg.UserID,
		DeviceID:   string(resp.DeviceID),
		Sealed:     secretbox.Seal(nil, []byte(resp.AccessToken), &nonce, &key),
		Nonce:      nonce,
		Salt:       salt,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(cfg.CredentialsPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write credentials file: %w", err)
	}

	log.Info().Str("path", cfg.CredentialsPath).Msg("Stored session credentials")
	return client, nil
}

// Connect returns a logged-in client, reusing the stored session when one
// exists and logging in fresh otherwise.
func Connect(ctx context.Context, cfg *Config, log zerolog.Logger) (*mautrix.Client, error) {
	password, err := readPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to get password: %w", err)
	}

	if _, err := os.Stat(cfg.CredentialsPath); os.IsNotExist(err) {
		return loginAndStore(ctx, cfg, password, log)
	}
	return loadSession(cfg.CredentialsPath, password)
}
