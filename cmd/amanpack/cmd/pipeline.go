package cmd

import (
	"log/slog"

	"github.com/Aman-CERP/amanpack/internal/chunk"
	"github.com/Aman-CERP/amanpack/internal/config"
	"github.com/Aman-CERP/amanpack/internal/pack"
	"github.com/Aman-CERP/amanpack/internal/truncate"
)

// pipeline is the compression stack shared by the commands.
type pipeline struct {
	manager *chunk.Manager
	engine  *truncate.Engine
	packer  *pack.Packer
}

// newPipeline builds and initializes the stack for cfg. Close releases it.
func newPipeline(cfg *config.Config, logger *slog.Logger, reporter pack.Reporter) (*pipeline, error) {
	managerOpts := []chunk.ManagerOption{chunk.WithLogger(logger)}
	if cfg.Grammars.Dir != "" {
		managerOpts = append(managerOpts, chunk.WithGrammarDir(cfg.Grammars.Dir))
	}
	manager := chunk.NewManager(managerOpts...)
	if err := manager.Init(); err != nil {
		return nil, err
	}

	engine, err := truncate.NewEngine(truncate.NewTreeAnalyzer(manager), truncate.Config{
		CacheSize: cfg.Performance.CacheSize,
		Logger:    logger,
	})
	if err != nil {
		manager.Dispose()
		return nil, err
	}

	packOpts := []pack.Option{pack.WithLogger(logger)}
	if reporter != nil {
		packOpts = append(packOpts, pack.WithReporter(reporter))
	}
	packer, err := pack.New(pack.NewProcessor(manager, engine, logger), packOpts...)
	if err != nil {
		manager.Dispose()
		return nil, err
	}

	return &pipeline{manager: manager, engine: engine, packer: packer}, nil
}

// Close releases every parser and grammar.
func (p *pipeline) Close() {
	p.manager.Dispose()
}
