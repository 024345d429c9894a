package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/matuteb/gestion-api/internal/application/iaval"
)

var _ iaval.FileStore = (*LocalStore)(nil)

// LocalStore file store sobre disco local. La referencia que devuelve Save es
// el nombre del archivo dentro de basePath, prefijado con un uuid para evitar
// colisiones. Suficiente para un solo nodo; detrás de un balanceador haría
// falta un almacenamiento compartido.
type LocalStore struct {
	basePath string
}

// NewLocalStore construye el store y crea el directorio base si no existe.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear directorio %s: %w", basePath, err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Save escribe el contenido y devuelve la referencia opaca.
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	ref := uuid.New().String() + "_" + sanitize(name)
	path := filepath.Join(s.basePath, ref)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: crear %s: %w", ref, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: escribir %s: %w", ref, err)
	}
	return ref, nil
}

// Open abre el contenido referenciado. El caller cierra el reader.
func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	// La referencia es un nombre plano: cualquier separador es un intento de
	// salir del directorio base.
	if ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return nil, fmt.Errorf("storage: referencia inválida %q", ref)
	}
	f, err := os.Open(filepath.Join(s.basePath, ref))
	if err != nil {
		return nil, fmt.Errorf("storage: abrir %s: %w", ref, err)
	}
	return f, nil
}

// sanitize reduce el nombre original a un sufijo seguro para el filesystem.
func sanitize(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." {
		out = "archivo"
	}
	return out
}
