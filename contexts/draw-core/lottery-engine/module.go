package lotteryengine

import (
	"log/slog"
	"time"

	httpadapter "tombola/contexts/draw-core/lottery-engine/adapters/http"
	"tombola/contexts/draw-core/lottery-engine/adapters/memory"
	"tombola/contexts/draw-core/lottery-engine/application/commands"
	"tombola/contexts/draw-core/lottery-engine/application/queries"
	"tombola/contexts/draw-core/lottery-engine/application/workers"
	"tombola/contexts/draw-core/lottery-engine/ports"
)

// Dependencies carries everything the lottery engine needs from the outside:
// storage, the email codec, time, and identity generation.
type Dependencies struct {
	Repos        ports.Repositories
	UoW          ports.UnitOfWork
	Codec        ports.EmailCodec
	Aliases      ports.AliasGenerator
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Location     *time.Location
	MaxDaysAhead int
	Logger       *slog.Logger
}

// Module is the assembled lottery engine: the HTTP-facing handler for the API
// process and the winner scheduler for the worker process.
type Module struct {
	Handler   httpadapter.Handler
	Scheduler workers.WinnerScheduler

	// Store is set only by NewInMemoryModule, as a test seam.
	Store *memory.Store
}

func NewModule(deps Dependencies) Module {
	submit := commands.SubmitBallotUseCase{
		UoW:          deps.UoW,
		Codec:        deps.Codec,
		Aliases:      deps.Aliases,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Location:     deps.Location,
		MaxDaysAhead: deps.MaxDaysAhead,
		Logger:       deps.Logger,
	}
	pick := commands.PickWinnerUseCase{
		UoW:      deps.UoW,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Location: deps.Location,
		Logger:   deps.Logger,
	}
	upcoming := queries.UpcomingLotteriesUseCase{
		Lotteries: deps.Repos,
		Clock:     deps.Clock,
		Location:  deps.Location,
	}
	winners := queries.WinnerLookupUseCase{
		Winners:      deps.Repos,
		Participants: deps.Repos,
		Codec:        deps.Codec,
		Clock:        deps.Clock,
		Location:     deps.Location,
	}

	return Module{
		Handler: httpadapter.Handler{
			Submissions: submit,
			Lotteries:   upcoming,
			Winners:     winners,
			Logger:      deps.Logger,
		},
		Scheduler: workers.WinnerScheduler{
			Winners:  pick,
			Clock:    deps.Clock,
			Location: deps.Location,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine over the in-memory store, for tests and
// local runs without Postgres. The store doubles as clock, id generator, and
// alias generator.
func NewInMemoryModule(codec ports.EmailCodec, loc *time.Location, maxDaysAhead int, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repos:        store,
		UoW:          store,
		Codec:        codec,
		Aliases:      store,
		Clock:        store,
		IDGen:        store,
		Location:     loc,
		MaxDaysAhead: maxDaysAhead,
		Logger:       logger,
	})
	module.Store = store
	return module
}
