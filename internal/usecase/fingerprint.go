package usecase

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/ofertas-ar/backend/internal/domain"
)

// Fingerprint derives the stable identity key for a product from its
// normalized source, store, and name. Price, link, and image are mutable
// display data and must never influence identity.
func Fingerprint(p domain.Product) string {
	key := fmt.Sprintf("%s|%s|%s",
		NormalizeText(p.Fuente),
		NormalizeStore(p.Tienda),
		NormalizeText(p.Nombre),
	)
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
