package billing

import "sync"

type seqKey struct {
	posID    string
	cbteTipo int
}

// sequenceCache mantiene, por (punto de venta, tipo de comprobante), el último
// número autorizado conocido y un mutex que serializa las autorizaciones de
// esa serie. Claves distintas avanzan en paralelo.
//
// El valor cacheado es solo una pista para detectar desvíos: antes de numerar
// siempre se consulta a AFIP, y ante discrepancia gana AFIP.
type sequenceCache struct {
	mu    sync.Mutex
	last  map[seqKey]int64
	locks map[seqKey]*sync.Mutex
}

func newSequenceCache() *sequenceCache {
	return &sequenceCache{
		last:  make(map[seqKey]int64),
		locks: make(map[seqKey]*sync.Mutex),
	}
}

// lock devuelve el mutex de la serie, creándolo si es la primera vez.
// El caller es responsable de Lock/Unlock.
func (c *sequenceCache) lock(posID string, cbteTipo int) *sync.Mutex {
	k := seqKey{posID, cbteTipo}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.locks[k]
	if !ok {
		m = &sync.Mutex{}
		c.locks[k] = m
	}
	return m
}

func (c *sequenceCache) get(posID string, cbteTipo int) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.last[seqKey{posID, cbteTipo}]
	return n, ok
}

func (c *sequenceCache) set(posID string, cbteTipo int, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[seqKey{posID, cbteTipo}] = n
}
