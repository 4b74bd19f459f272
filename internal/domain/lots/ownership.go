package lots

import (
	"context"

	"finca-manager/internal/authz"
)

// LotView expone la vista authz de un lote sin aplicar política.
// Lo consume el módulo animals al ubicar un animal; el check de acceso
// lo hace quien llama.
func (s *Service) LotView(ctx context.Context, lotID string) (authz.Lot, error) {
	l, err := s.load(ctx, lotID)
	if err != nil {
		return authz.Lot{}, err
	}
	return AuthzView(l), nil
}
