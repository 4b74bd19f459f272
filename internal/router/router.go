package router

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"time"

	mem "finca-manager/internal/adapters/storage/memory"
	pg "finca-manager/internal/adapters/storage/postgres"
	"finca-manager/internal/authz"
	"finca-manager/internal/domain/animals"
	"finca-manager/internal/domain/events"
	"finca-manager/internal/domain/farmaccess"
	"finca-manager/internal/domain/farms"
	"finca-manager/internal/domain/grupos"
	"finca-manager/internal/domain/lots"
	"finca-manager/internal/domain/masterdata"
	"finca-manager/internal/domain/rbac"
	"finca-manager/internal/domain/transactions"
	"finca-manager/internal/domain/users"
	"finca-manager/internal/middleware"
	"finca-manager/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  auth.TokenIssuer  // puede ser nil: /auth/login devuelve error

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	var (
		userRepo       users.Repository
		farmRepo       farms.Repository
		lotRepo        lots.Repository
		accessRepo     farmaccess.Repository
		animalRepo     animals.Repository
		locationRepo   animals.LocationRepository
		grupoRepo      grupos.Repository
		eventRepo      events.Repository
		txRepo         transactions.Repository
		masterDataRepo masterdata.Repository
		rbacRepo       rbac.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("FINCA_DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		userRepo = pg.NewUsersRepo(db)
		farmRepo = pg.NewFarmsRepo(db)
		lotRepo = pg.NewLotsRepo(db)
		accessRepo = pg.NewFarmAccessRepo(db)
		animalRepo = pg.NewAnimalsRepo(db)
		locationRepo = pg.NewAnimalLocationsRepo(db)
		grupoRepo = pg.NewGruposRepo(db)
		eventRepo = pg.NewEventsRepo(db)
		txRepo = pg.NewTransactionsRepo(db)
		masterDataRepo = pg.NewMasterDataRepo(db)
		rbacRepo = pg.NewRBACRepo(db)
	} else {
		userRepo = mem.NewUserRepo()
		farmRepo = mem.NewFarmRepo()
		lotRepo = mem.NewLotRepo()
		accessRepo = mem.NewFarmAccessRepo()
		animalRepo = mem.NewAnimalRepo(lotRepo)
		locationRepo = mem.NewAnimalLocationRepo()
		grupoRepo = mem.NewGrupoRepo()
		eventRepo = mem.NewEventRepo()
		txRepo = mem.NewTransactionRepo()
		masterDataRepo = mem.NewMasterDataRepo()
		rbacRepo = mem.NewRBACRepo()
	}

	// Resolver + engine sobre los repos
	authzr := authz.NewAuthorizer(&authzStore{
		farms:   farmRepo,
		lots:    lotRepo,
		animals: animalRepo,
		grants:  accessRepo,
	})

	// Services por módulo
	rbacSvc := rbac.NewService(rbacRepo, &userSource{users: userRepo}, authzr)
	usersSvc := users.NewService(userRepo, opts.TokenIssuer, authzr, rbacSvc)

	// animalsSvc se arma después de lotsSvc (es su LotSource), pero sus
	// cascadas se necesitan antes: cierre tardío sobre la variable.
	var animalsSvc *animals.Service
	clearLot := func(ctx context.Context, lotID string) error {
		return animalsSvc.ClearLot(ctx, lotID)
	}

	farmsSvc := farms.NewService(farmRepo, authzr, farms.CascadeDeps{
		DeleteLotsByFarm: func(ctx context.Context, farmID string) error {
			// los animales de esos lotes quedan sin lote, no se borran
			ls, err := lotRepo.ListByFarm(ctx, farmID)
			if err != nil {
				return err
			}
			for _, l := range ls {
				if err := clearLot(ctx, l.ID); err != nil {
					return err
				}
			}
			return lotRepo.DeleteByFarm(ctx, farmID)
		},
		DeleteGrantsByFarm: accessRepo.DeleteByFarm,
	})

	lotsSvc := lots.NewService(lotRepo, farmsSvc, authzr, clearLot)
	animalsSvc = animals.NewService(animalRepo, locationRepo, lotsSvc, authzr, animals.CascadeDeps{
		DetachFromEvents: eventRepo.DeletePivotsByAnimal,
		DetachFromGroups: grupoRepo.DeleteMembersByAnimal,
	})
	gruposSvc := grupos.NewService(grupoRepo, animalsSvc, authzr)
	eventsSvc := events.NewService(eventRepo, animalsSvc, authzr)

	accessSvc := farmaccess.NewService(accessRepo, farmsSvc, &userSource{users: userRepo}, authzr)
	masterDataSvc := masterdata.NewService(masterDataRepo, authzr, rbacSvc)
	txSvc := transactions.NewService(txRepo, &targetResolver{
		farms:   farmRepo,
		lots:    lotRepo,
		animals: animalRepo,
	}, &userSource{users: userRepo}, authzr)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Rutas públicas (/auth) y protegidas comparten el mismo middleware:
	// AuthContext deja pasar sin identidad y cada handler decide.
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.AuthContext(opts.AuthVerifier, usersSvc))

		users.RegisterRoutes(gr, usersSvc)
		farms.RegisterRoutes(gr, farmsSvc)
		lots.RegisterRoutes(gr, lotsSvc)
		farmaccess.RegisterRoutes(gr, accessSvc)
		animals.RegisterRoutes(gr, animalsSvc)
		grupos.RegisterRoutes(gr, gruposSvc)
		events.RegisterRoutes(gr, eventsSvc)
		transactions.RegisterRoutes(gr, txSvc)
		masterdata.RegisterRoutes(gr, masterDataSvc)
		rbac.RegisterRoutes(gr, rbacSvc)
	})

	return r
}

// authzStore adapta los repos al Store del resolver: vistas mínimas y
// ErrNotFound propio de authz.
type authzStore struct {
	farms   farms.Repository
	lots    lots.Repository
	animals animals.Repository
	grants  farmaccess.Repository
}

func (s *authzStore) FarmByID(ctx context.Context, id string) (authz.Farm, error) {
	f, err := s.farms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, farms.ErrNotFound) {
			return authz.Farm{}, authz.ErrNotFound
		}
		return authz.Farm{}, err
	}
	return farms.AuthzView(f), nil
}

func (s *authzStore) LotByID(ctx context.Context, id string) (authz.Lot, error) {
	l, err := s.lots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lots.ErrNotFound) {
			return authz.Lot{}, authz.ErrNotFound
		}
		return authz.Lot{}, err
	}
	return lots.AuthzView(l), nil
}

func (s *authzStore) AnimalByID(ctx context.Context, id string) (authz.Animal, error) {
	a, err := s.animals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, animals.ErrNotFound) {
			return authz.Animal{}, authz.ErrNotFound
		}
		return authz.Animal{}, err
	}
	return animals.AuthzView(a), nil
}

func (s *authzStore) FarmIDsByOwner(ctx context.Context, userID string) ([]string, error) {
	return s.farms.IDsByOwner(ctx, userID)
}

func (s *authzStore) HasActiveGrant(ctx context.Context, userID, farmID string) (bool, error) {
	g, err := s.grants.Get(ctx, userID, farmID)
	if err != nil {
		if errors.Is(err, farmaccess.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.ActiveAt(time.Now()), nil
}

func (s *authzStore) FarmIDsGranted(ctx context.Context, userID string) ([]string, error) {
	gs, err := s.grants.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		if g.ActiveAt(now) {
			out = append(out, g.FarmID)
		}
	}
	return out, nil
}

// userSource adapta el repo de usuarios a los checkers chicos que piden
// los demás módulos.
type userSource struct {
	users users.Repository
}

func (s *userSource) Exists(ctx context.Context, userID string) (bool, error) {
	return s.UserExists(ctx, userID)
}

func (s *userSource) UserExists(ctx context.Context, userID string) (bool, error) {
	_, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *userSource) IsSuperuser(ctx context.Context, userID string) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsSuperuser, nil
}

// targetResolver localiza el dueño del recurso transado.
type targetResolver struct {
	farms   farms.Repository
	lots    lots.Repository
	animals animals.Repository
}

func (t *targetResolver) ResolveTargetOwner(ctx context.Context, target transactions.Target) (string, error) {
	switch target.Kind {
	case transactions.TargetAnimal:
		a, err := t.animals.GetByID(ctx, target.ID)
		if err != nil {
			return "", err
		}
		return a.OwnerUserID, nil
	case transactions.TargetFarm:
		f, err := t.farms.GetByID(ctx, target.ID)
		if err != nil {
			return "", err
		}
		return f.OwnerUserID, nil
	case transactions.TargetLot:
		// el lote no tiene owner propio: manda la finca
		l, err := t.lots.GetByID(ctx, target.ID)
		if err != nil {
			return "", err
		}
		f, err := t.farms.GetByID(ctx, l.FarmID)
		if err != nil {
			return "", err
		}
		return f.OwnerUserID, nil
	}
	return "", transactions.ErrInvalidInput
}
