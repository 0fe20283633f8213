// internal/workers/grants/grant-catalog-changed/models.go
package grantcatalogchanged

import "grant-engine/internal/catalog"

type Input = catalog.GrantChange

type Output struct {
	GrantID     string   `json:"grantId"`
	Invalidated bool     `json:"invalidated"`
	Groups      []string `json:"groups"`
}
