package purchase

import (
	"context"
	"sync"
	"time"
)

// FlushFunc persiste las ediciones pendientes de la sesión.
type FlushFunc func(ctx context.Context) error

// EditBuffer buffer de edición con bandera de sucio. La superficie de edición
// marca con MarkDirty cada cambio local; Flush persiste vía el callback y
// limpia la bandera solo si la persistencia tuvo éxito: un guardado fallido
// nunca descarta ediciones locales, el siguiente Flush (manual o del timer)
// reintenta.
type EditBuffer struct {
	mu    sync.Mutex
	dirty bool
	flush FlushFunc
}

// NewEditBuffer construye el buffer alrededor del callback de persistencia.
func NewEditBuffer(flush FlushFunc) *EditBuffer {
	return &EditBuffer{flush: flush}
}

// MarkDirty marca que hay ediciones sin persistir.
func (b *EditBuffer) MarkDirty() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}

// IsDirty indica si hay ediciones pendientes.
func (b *EditBuffer) IsDirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Flush persiste si hay ediciones pendientes. Si no las hay es un no-op; si la
// persistencia falla la bandera queda en sucio.
func (b *EditBuffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if !b.dirty {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if err := b.flush(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.dirty = false
	b.mu.Unlock()
	return nil
}

// StartAutosave lanza el flush periódico: cada intervalo persiste si y solo si
// la bandera está en sucio. Se detiene al cancelar el contexto.
func (b *EditBuffer) StartAutosave(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = b.Flush(ctx)
			}
		}
	}()
}

// EditSession sesión de edición activa sobre un documento: buffer de guardado
// más despachador de comandos acotado a la sesión. Los comandos (guardar,
// cerrar, agregar renglón) se registran con Bind y se desarman todos juntos
// con Close, sin listeners globales de proceso.
type EditSession struct {
	Buffer *EditBuffer

	mu       sync.Mutex
	commands map[string]func()
	closed   bool
}

// NewEditSession crea la sesión con su buffer.
func NewEditSession(flush FlushFunc) *EditSession {
	return &EditSession{
		Buffer:   NewEditBuffer(flush),
		commands: make(map[string]func()),
	}
}

// Bind registra un comando de la sesión. Sobre sesión cerrada es un no-op.
func (s *EditSession) Bind(command string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.commands[command] = fn
}

// Dispatch ejecuta el comando si está registrado y la sesión sigue abierta.
func (s *EditSession) Dispatch(command string) bool {
	s.mu.Lock()
	fn, ok := s.commands[command]
	closed := s.closed
	s.mu.Unlock()
	if closed || !ok {
		return false
	}
	fn()
	return true
}

// Close desarma todos los comandos de la sesión de forma determinista.
func (s *EditSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.commands = map[string]func(){}
}
