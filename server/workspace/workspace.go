// Package workspace stages the private directory tree a job builds in.
package workspace

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/archive"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/runatlantis/packagebuilder/server/models"
)

const (
	sourceDirName     = "src"
	toolHomeDirName   = ".gradle"
	outputArchiveName = "output.zip"

	executablePerm os.FileMode = 0755
)

// Workspace is the directory layout of a single job.
type Workspace struct {
	BaseDir string
	// Root is BaseDir/<input object name>.
	Root          string
	SourceDir     string
	ToolHome      string
	OutputArchive string
}

// New lays out the workspace for input under baseDir. The root must land
// strictly inside baseDir.
func New(baseDir string, input models.ObjectRef) (Workspace, error) {
	root := filepath.Join(baseDir, input.Name())
	if !within(baseDir, root) {
		return Workspace{}, errors.Errorf("input %s does not name a workspace under %s", input, baseDir)
	}
	return Workspace{
		BaseDir:       baseDir,
		Root:          root,
		SourceDir:     filepath.Join(root, sourceDirName),
		ToolHome:      filepath.Join(root, toolHomeDirName),
		OutputArchive: filepath.Join(root, outputArchiveName),
	}, nil
}

func within(baseDir, root string) bool {
	rel, err := filepath.Rel(baseDir, root)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

type objectGetter interface {
	Get(ctx context.Context, ref models.ObjectRef) (io.ReadCloser, error)
}

// Manager stages workspaces and the toolchains they build with.
type Manager struct {
	BaseDir   string
	Toolchain valid.Toolchain
	Storage   objectGetter
	Logger    logging.Logger
}

// NewManager builds a Manager from the builder config.
func NewManager(cfg valid.BuilderCfg, storage objectGetter, logger logging.Logger) *Manager {
	return &Manager{
		BaseDir:   cfg.BaseDir,
		Toolchain: cfg.Toolchain,
		Storage:   storage,
		Logger:    logger,
	}
}

// Prepare creates the job's workspace and stages both toolchain
// distributions under the base directory. Two jobs for inputs with the same
// name share a root.
func (m *Manager) Prepare(ctx context.Context, job models.Job) (Workspace, error) {
	ws, err := New(m.BaseDir, job.Input)
	if err != nil {
		return ws, err
	}
	if err := os.MkdirAll(ws.Root, 0700); err != nil {
		return ws, errors.Wrapf(err, "creating workspace %s", ws.Root)
	}

	if err := m.bootstrap(ctx); err != nil {
		return ws, errors.Wrap(err, "bootstrapping toolchain")
	}
	return ws, nil
}

func (m *Manager) bootstrap(ctx context.Context) error {
	m.logDiskSpace(ctx, "before bootstrap")
	defer m.logDiskSpace(ctx, "after bootstrap")

	for _, d := range []valid.Distribution{m.Toolchain.BuildTool, m.Toolchain.Runtime} {
		if err := m.install(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) install(ctx context.Context, d valid.Distribution) error {
	ref := models.NewObjectRef(m.Toolchain.Bucket, d.ArchiveKey)
	body, err := m.Storage.Get(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "fetching %s distribution", d.Name)
	}
	defer body.Close()

	if _, err := archive.Extract(body, m.BaseDir); err != nil {
		return errors.Wrapf(err, "extracting %s distribution", d.Name)
	}

	entry := d.ExecutablePath(m.BaseDir)
	if err := os.Chmod(entry, executablePerm); err != nil {
		return errors.Wrapf(err, "making %s executable", entry)
	}

	m.Logger.InfoContext(ctx, "installed distribution", map[string]interface{}{
		"distribution": d.Name,
		"archive":      ref.String(),
		"path":         d.InstallPath(m.BaseDir),
	})
	return nil
}

func (m *Manager) logDiskSpace(ctx context.Context, phase string) {
	space, err := StatDisk(m.BaseDir)
	if err != nil {
		m.Logger.WarnContext(ctx, "unable to read disk space", logging.ErrField(err))
		return
	}
	m.Logger.InfoContext(ctx, "disk space "+phase, map[string]interface{}{
		"path":      m.BaseDir,
		"total":     space.Total,
		"free":      space.Free,
		"available": space.Available,
	})
}

// Teardown removes everything under the workspace root. Roots outside the
// base directory are refused.
func (m *Manager) Teardown(ctx context.Context, ws Workspace) error {
	if !within(m.BaseDir, ws.Root) {
		return errors.Errorf("refusing to remove %s outside %s", ws.Root, m.BaseDir)
	}
	if err := os.RemoveAll(ws.Root); err != nil {
		return errors.Wrapf(err, "removing workspace %s", ws.Root)
	}
	m.Logger.InfoContext(ctx, "removed workspace", map[string]interface{}{
		"path": ws.Root,
	})
	return nil
}
