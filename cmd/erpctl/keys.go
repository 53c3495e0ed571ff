package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/auth"
)

const tokenSecretSize = 48

func runKeygen(w io.Writer) error {
	access, err := randomKey(tokenSecretSize, base64.RawURLEncoding)
	if err != nil {
		return err
	}
	refresh, err := randomKey(tokenSecretSize, base64.RawURLEncoding)
	if err != nil {
		return err
	}
	carrier, err := randomKey(chacha20poly1305.KeySize, base64.StdEncoding)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "secretKey:")
	fmt.Fprintf(w, "  access: %s\n", access)
	fmt.Fprintf(w, "  refresh: %s\n", refresh)
	fmt.Fprintf(w, "  carrier: %s\n", carrier)

	return nil
}

func randomKey(size int, encoding *base64.Encoding) (string, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return encoding.EncodeToString(key), nil
}

func runHashPassword(r io.Reader, w io.Writer, cost int) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "failed to read password")
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}

	hash, err := auth.NewBcryptHasherWithCost(cost).Hash(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, hash)

	return nil
}
