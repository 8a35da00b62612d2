// Package packagekit searches and installs system packages through the
// PackageKit client library.
package packagekit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/quantmind-br/pkgkit/internal/bridge"
	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/native"
	"github.com/quantmind-br/pkgkit/internal/syspkg"
	"github.com/quantmind-br/pkgkit/internal/transaction"
	"github.com/rs/zerolog"
)

var _ syspkg.Provider = (*Client)(nil)

// Client issues PackageKit transactions. Each operation opens its own task;
// calls on one client are serialized.
type Client struct {
	lib    native.Library
	opts   Options
	log    *zerolog.Logger
	mu     sync.Mutex
	closed bool
}

// New creates a client that owns lib
func New(lib native.Library, opts Options, log *zerolog.Logger) *Client {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Client{
		lib:  lib,
		opts: opts,
		log:  log,
	}
}

// Open connects to the PackageKit daemon
func Open(opts Options, log *zerolog.Logger) (*Client, error) {
	lib, err := native.Open()
	if err != nil {
		return nil, fmt.Errorf("open packagekit: %w", err)
	}
	return New(lib, opts, log), nil
}

// Name implements syspkg.Provider
func (c *Client) Name() string {
	return "packagekit"
}

// Backend returns the name of the daemon backend (apt, dnf, ...)
func (c *Client) Backend() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ""
	}
	return c.lib.BackendName()
}

// SearchPackage resolves name against the repositories using the
// configured filters and returns the matches in backend order
func (c *Client) SearchPackage(ctx context.Context, name string) ([]core.Package, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tx := transaction.NewManager(c.log)
	defer c.release(tx)

	names, err := bridge.EncodeStrv(c.lib, []string{name})
	if err != nil {
		return nil, fmt.Errorf("encode package name: %w", err)
	}
	tx.Add("names", names.Release)

	filters, err := c.filterBitfield(tx)
	if err != nil {
		return nil, err
	}

	task := c.newTask(tx)

	c.log.Debug().
		Str("name", name).
		Str("filters", core.JoinFilters(c.opts.Filters)).
		Msg("resolving package")

	results, err := c.lib.ResolveSync(ctx, task, filters, names.Ptr(), c.opts.Progress)
	if err != nil {
		return nil, c.callFailed(ctx, OpResolve, err)
	}
	tx.Add("results", bridge.NewGuard(unsafe.Pointer(results), c.lib.ObjectUnref).Release)

	if err := c.checkResults(tx, OpResolve, results); err != nil {
		return nil, err
	}

	arr := c.lib.ResultsPackageArray(results)
	tx.Add("packages", bridge.NewGuard(unsafe.Pointer(arr), func(p unsafe.Pointer) {
		c.lib.PtrArrayUnref(native.PtrArray(p))
	}).Release)

	data, n := c.lib.PtrArrayData(arr)
	pkgs := bridge.DecodeArray(c.lib, data, n)

	c.log.Debug().Str("name", name).Int("count", len(pkgs)).Msg("resolved packages")
	return pkgs, nil
}

// InstallPackages installs pkgs in one PackageKit transaction
func (c *Client) InstallPackages(ctx context.Context, pkgs []core.Package) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tx := transaction.NewManager(c.log)
	defer c.release(tx)

	ids, err := bridge.EncodeStrv(c.lib, core.IDs(pkgs))
	if err != nil {
		return fmt.Errorf("encode package ids: %w", err)
	}
	tx.Add("ids", ids.Release)

	task := c.newTask(tx)

	c.log.Debug().Strs("ids", core.IDs(pkgs)).Msg("installing packages")

	results, err := c.lib.InstallPackagesSync(ctx, task, ids.Ptr(), c.opts.Progress)
	if err != nil {
		return c.callFailed(ctx, OpInstall, err)
	}
	tx.Add("results", bridge.NewGuard(unsafe.Pointer(results), c.lib.ObjectUnref).Release)

	if err := c.checkResults(tx, OpInstall, results); err != nil {
		return err
	}

	c.log.Info().Int("count", len(pkgs)).Msg("packages installed")
	return nil
}

// Install installs a single package
func (c *Client) Install(ctx context.Context, pkg core.Package) error {
	return c.InstallPackages(ctx, []core.Package{pkg})
}

// Close releases the native library. Later operations fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.lib.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.Timeout > 0 {
		return context.WithTimeout(ctx, c.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) release(tx *transaction.Manager) {
	if err := tx.Release(); err != nil {
		c.log.Warn().Err(err).Msg("failed to release native resources")
	}
}

func (c *Client) newTask(tx *transaction.Manager) native.Task {
	task := c.lib.NewTask()
	tx.Add("task", bridge.NewGuard(unsafe.Pointer(task), c.lib.ObjectUnref).Release)
	return task
}

func (c *Client) filterBitfield(tx *transaction.Manager) (uint64, error) {
	text, err := bridge.EncodeText(c.lib, core.JoinFilters(c.opts.Filters))
	if err != nil {
		return 0, fmt.Errorf("encode filters: %w", err)
	}
	tx.Add("filters", text.Release)
	return c.lib.FilterBitfield(text.Ptr()), nil
}

// checkResults turns a transaction error code into an *Error
func (c *Client) checkResults(tx *transaction.Manager, op string, results native.Results) error {
	code := c.lib.ResultsErrorCode(results)
	if code == nil {
		return nil
	}
	tx.Add("error", bridge.NewGuard(unsafe.Pointer(code), c.lib.ObjectUnref).Release)

	value := c.lib.ErrorGetCode(code)
	e := &Error{
		Op:      op,
		Code:    value,
		Message: bridge.DecodeText(c.lib.ErrorEnumToString(value)),
		Details: bridge.DecodeText(c.lib.ErrorGetDetails(code)),
	}

	c.log.Warn().
		Str("op", op).
		Int("code", e.Code).
		Str("details", e.Details).
		Msg(e.Message)
	return e
}

// callFailed wraps a failure of the synchronous call itself
func (c *Client) callFailed(ctx context.Context, op string, err error) error {
	e := &Error{Op: op, Message: err.Error(), Err: err}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		e.Err = fmt.Errorf("%w: %w", ctxErr, err)
	}

	c.log.Warn().Err(err).Str("op", op).Msg("packagekit call failed")
	return e
}
