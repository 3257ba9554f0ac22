// Package store regroupe les implémentations de persistance des paniers,
// produits et commandes.
package store

import "errors"

var (
	// ErrNotFound : document absent.
	ErrNotFound = errors.New("store: not found")
	// ErrInsufficientStock : la décrémentation conditionnelle a échoué,
	// le stock restant est inférieur à la quantité demandée.
	ErrInsufficientStock = errors.New("store: insufficient stock")
	// ErrStockContended : le stock suffisait mais d'autres commandes l'ont
	// modifié à chaque tentative.
	ErrStockContended = errors.New("store: stock contended")
)
