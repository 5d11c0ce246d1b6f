package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/laborstat-cli/internal/pipeline"
	"github.com/sells-group/laborstat-cli/internal/refdata"
	"github.com/sells-group/laborstat-cli/internal/store"
)

// initStore opens and migrates the run-history database.
func initStore(ctx context.Context) (store.RunStore, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate run store")
	}
	return st, nil
}

// initPipeline wires the pipeline without run history, for the standalone
// step commands.
func initPipeline() (*pipeline.Pipeline, error) {
	dir, err := refdata.Load()
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Cfg:   cfg,
		Dir:   dir,
		Clean: store.NewLongFormStore(cfg.Data.CleanPath),
	}, nil
}
