package register

import "sync"

// Handler is a callback registered under an arbitrary key, resolved
// later by the same type parameter. Used to let packages hook into a
// provider's setup without importing it.
type Handler[T any] func(T)

var (
	mu       sync.RWMutex
	handlers = make(map[any][]any)
)

func RegisterFunc[T any](key any, handler Handler[T]) {
	mu.Lock()
	defer mu.Unlock()
	handlers[key] = append(handlers[key], handler)
}

func ResolveFuncHandlers[T any](key any) []Handler[T] {
	mu.RLock()
	defer mu.RUnlock()

	var result []Handler[T]
	for _, v := range handlers[key] {
		if h, ok := v.(Handler[T]); ok {
			result = append(result, h)
		}
	}
	return result
}
