package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/strataconf/strata/pkg/audit"
	"github.com/strataconf/strata/pkg/cas"
	"github.com/strataconf/strata/pkg/core"
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage"
	"github.com/strataconf/strata/pkg/storage"
	"github.com/strataconf/strata/pkg/storage/localfs"
	"github.com/strataconf/strata/pkg/zlog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flagsT struct {
	target struct {
		global  bool
		local   bool
		mode    bool
		project bool
		scope   string
		layer   string
	}
	stage struct {
		deletion bool
	}
	unstage struct {
		all bool
	}
	commit struct {
		Message string
	}
	apply struct {
		force bool
	}
	checkout struct {
		dest string
	}
	sync struct {
		remote string
	}
	audit struct {
		fromToken string
	}
	contributor struct {
		Name  string
		Email string
	}
	core struct {
		Max int
	}
	root struct {
		store     string
		workspace string
		logLevel  string
		cpuProf   bool
	}
	doc struct {
		docTarget string
	}
}

var strataFlags = flagsT{}

func addTargetGlobalFlag(cmd *cobra.Command) string {
	c := "global"
	cmd.Flags().BoolVar(&strataFlags.target.global, c, false, "Target the global layer, shared by every project and mode")
	return c
}

func addTargetLocalFlag(cmd *cobra.Command) string {
	c := "local"
	cmd.Flags().BoolVar(&strataFlags.target.local, c, false, "Target the local layer of the current project. Local settings override everything and are never shared")
	return c
}

func addTargetModeFlag(cmd *cobra.Command) string {
	c := "mode"
	cmd.Flags().BoolVar(&strataFlags.target.mode, c, false, "Target the layer of the active mode (run 'strata use mode' first)")
	return c
}

func addTargetProjectFlag(cmd *cobra.Command) string {
	c := "project"
	cmd.Flags().BoolVar(&strataFlags.target.project, c, false, "Qualify the mode layer with the current project. Only valid together with --mode")
	return c
}

func addTargetScopeFlag(cmd *cobra.Command) string {
	c := "scope"
	cmd.Flags().StringVar(&strataFlags.target.scope, c, "", "Target a scope layer by name. Combines with --global and --mode")
	return c
}

func addLayerFlag(cmd *cobra.Command) string {
	c := "layer"
	cmd.Flags().StringVar(&strataFlags.target.layer, c, "", `Address a layer by its canonical string (e.g. "mode:mode=vim"), bypassing the context router`)
	return c
}

func addStageDeleteFlag(cmd *cobra.Command) string {
	c := "delete"
	cmd.Flags().BoolVar(&strataFlags.stage.deletion, c, false, "Stage the removal of the given paths from the layer instead of their content")
	return c
}

func addUnstageAllFlag(cmd *cobra.Command) string {
	c := "all"
	cmd.Flags().BoolVar(&strataFlags.unstage.all, c, false, "Drop every pending change for every layer")
	return c
}

func addMessageFlag(cmd *cobra.Command) string {
	c := "message"
	cmd.Flags().StringVarP(&strataFlags.commit.Message, c, "m", "", "The message describing this commit")
	return c
}

func addApplyForceFlag(cmd *cobra.Command) string {
	c := "force"
	cmd.Flags().BoolVar(&strataFlags.apply.force, c, false, "Overwrite local edits: apply even when the workspace is dirty")
	return c
}

func addCheckoutDestFlag(cmd *cobra.Command) string {
	c := "dest"
	cmd.Flags().StringVar(&strataFlags.checkout.dest, c, "", "Directory the layer files are written to (defaults to an inspection directory under the workspace metadata)")
	return c
}

func addSyncRemoteFlag(cmd *cobra.Command) string {
	c := "remote"
	cmd.Flags().StringVar(&strataFlags.sync.remote, c, "", "Path to the remote object store to pull layer history from")
	return c
}

func addAuditFromTokenFlag(cmd *cobra.Command) string {
	c := "from-token"
	cmd.Flags().StringVar(&strataFlags.audit.fromToken, c, "", "List entries recorded strictly after this token")
	return c
}

func addMaxResultsFlag(cmd *cobra.Command) string {
	c := "max"
	cmd.Flags().IntVar(&strataFlags.core.Max, c, 0, "Maximum number of entries listed (0 lists everything)")
	return c
}

func addContributorName(cmd *cobra.Command) string {
	c := "name"
	cmd.Flags().StringVar(&strataFlags.contributor.Name, c, "", "The name of the contributor recorded in commits")
	return c
}

func addContributorEmail(cmd *cobra.Command) string {
	c := "email"
	cmd.Flags().StringVar(&strataFlags.contributor.Email, c, "", "The email of the contributor recorded in commits")
	return c
}

func addStoreFlag(cmd *cobra.Command) string {
	c := "store"
	cmd.PersistentFlags().StringVar(&strataFlags.root.store, c, "", "Root directory of the object store (defaults to the config value, then $HOME/.strata/objects)")
	return c
}

func addWorkspaceFlag(cmd *cobra.Command) string {
	c := "workspace"
	cmd.PersistentFlags().StringVar(&strataFlags.root.workspace, c, "", "Working directory holding the materialized configuration (defaults to the current directory)")
	return c
}

func addLogLevel(cmd *cobra.Command) string {
	c := "loglevel"
	cmd.PersistentFlags().StringVar(&strataFlags.root.logLevel, c, "info", "The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return c
}

func addCPUProfFlag(cmd *cobra.Command) string {
	c := "cpuprof"
	cmd.PersistentFlags().BoolVar(&strataFlags.root.cpuProf, c, false, "Toggle runtime profiling")
	return c
}

func addTargetFlag(cmd *cobra.Command) string {
	c := "target-dir"
	cmd.Flags().StringVar(&strataFlags.doc.docTarget, c, ".", "The target directory where to generate the markdown documentation")
	return c
}

/** parameters struct from other formats */

// apply config file + env vars to structure used to parse cli flags
func (flags *flagsT) setDefaultsFromConfig(c *CLIConfig) {
	if flags.root.store == "" {
		flags.root.store = c.Store
	}
	if flags.contributor.Name == "" {
		flags.contributor.Name = c.Name
	}
	if flags.contributor.Email == "" {
		flags.contributor.Email = c.Email
	}
}

/** combined config (file + env var) and parameters (pflags) */

type cliOptionInputs struct {
	config *CLIConfig
	params *flagsT
}

func newCliOptionInputs(config *CLIConfig, params *flagsT) *cliOptionInputs {
	return &cliOptionInputs{
		config: config,
		params: params,
	}
}

/** combined config and parameters to internal objects */

func (in *cliOptionInputs) getLogger() (*zap.Logger, error) {
	var err error
	in.config.onceLogger.Do(func() {
		in.config.logger, err = zlog.GetLogger(in.params.root.logLevel)
	})
	if err != nil {
		return nil, err
	}
	return in.config.logger, nil
}

// storeRoot resolves the object store location: the --store flag wins,
// then the config file, then a per-user default.
func (in *cliOptionInputs) storeRoot() (string, error) {
	if in.params.root.store != "" {
		return in.params.root.store, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".strata", "objects"), nil
}

func (in *cliOptionInputs) backendStore() (storage.Store, error) {
	root, err := in.storeRoot()
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(root, 0700); err != nil {
		return nil, err
	}
	return localfs.New(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func (in *cliOptionInputs) objectStore() (cas.Store, error) {
	logger, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	backend, err := in.backendStore()
	if err != nil {
		return nil, err
	}
	return cas.New(cas.Backend(backend), cas.Logger(logger))
}

func (in *cliOptionInputs) stageIndex() (*stage.Stage, error) {
	logger, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	backend, err := in.backendStore()
	if err != nil {
		return nil, err
	}
	return stage.New(backend, stage.Logger(logger)), nil
}

func (in *cliOptionInputs) auditTrail() (*audit.Trail, error) {
	logger, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	backend, err := in.backendStore()
	if err != nil {
		return nil, err
	}
	return audit.New(backend, audit.Logger(logger)), nil
}

func (in *cliOptionInputs) workspaceFs() afero.Fs {
	workdir := in.params.root.workspace
	if workdir == "" {
		workdir = "."
	}
	return afero.NewBasePathFs(afero.NewOsFs(), workdir)
}

func (in *cliOptionInputs) contributor() model.Contributor {
	return model.Contributor{
		Name:  in.params.contributor.Name,
		Email: in.params.contributor.Email,
	}
}

// workspace assembles the engine over one shared backend store: objects,
// staging index and audit trail all live under the same root.
func (in *cliOptionInputs) workspace() (*core.Workspace, error) {
	logger, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	backend, err := in.backendStore()
	if err != nil {
		return nil, err
	}
	objects, err := cas.New(cas.Backend(backend), cas.Logger(logger))
	if err != nil {
		return nil, err
	}
	opts := []core.Option{
		core.Filesystem(in.workspaceFs()),
		core.Logger(logger),
		core.Trail(audit.New(backend, audit.Logger(logger))),
	}
	if c := in.contributor(); c.Name != "" || c.Email != "" {
		opts = append(opts, core.Contributor(c))
	}
	return core.New(objects, stage.New(backend, stage.Logger(logger)), opts...), nil
}

func (in *cliOptionInputs) selector() stage.Selector {
	return stage.Selector{
		Global:  in.params.target.global,
		Local:   in.params.target.local,
		Mode:    in.params.target.mode,
		Project: in.params.target.project,
		Scope:   in.params.target.scope,
	}
}

// targetLayer resolves the layer a command acts on, either from a literal
// --layer string or by routing the selector flags through the workspace
// context.
func (in *cliOptionInputs) targetLayer(ctx context.Context, w *core.Workspace) (model.LayerID, error) {
	if in.params.target.layer != "" {
		return model.ParseLayerID(in.params.target.layer)
	}
	pc, err := w.Context(ctx)
	if err != nil {
		return model.LayerID{}, err
	}
	return stage.RouteToLayer(in.selector(), pc)
}
