package farms

import (
	"context"

	"finca-manager/internal/authz"
)

// FarmView expone la vista authz de una finca sin aplicar política.
// Lo consumen módulos vecinos (lots, farmaccess) para evitar ciclos de
// imports; el check de acceso sigue siendo responsabilidad de quien llama.
func (s *Service) FarmView(ctx context.Context, farmID string) (authz.Farm, error) {
	f, err := s.load(ctx, farmID)
	if err != nil {
		return authz.Farm{}, err
	}
	return AuthzView(f), nil
}
