package browser

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Options configure the browser session a script runs in. The user data and
// profile directories point at the operator's everyday browser profile, so
// the session reuses its stored authentication state.
type Options struct {
	Headless         bool
	UserDataDir      string
	ProfileDirectory string
	// Wait bounds every single step. There are no retries: a step that
	// does not complete within Wait fails the whole run.
	Wait time.Duration
}

// Result carries what a script read from the pages it visited.
type Result struct {
	// Texts holds the values collected by text steps, in script order.
	Texts []string
	// HTML is the full page source after the last step, for scraping.
	HTML string
}

// Run opens a browser session, replays the script and captures the final
// page. The session is torn down on every exit path, success or not.
func Run(ctx context.Context, opts Options, script Script, log *zap.Logger) (*Result, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ProfileDirectory != "" {
		allocOpts = append(allocOpts, chromedp.Flag("profile-directory", opts.ProfileDirectory))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	res := &Result{}
	if err := runSteps(browserCtx, opts, script, res, log); err != nil {
		return nil, err
	}

	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &res.HTML, chromedp.ByQuery)); err != nil {
		return nil, &TimeoutError{Op: "capture", Err: err}
	}
	return res, nil
}

func runSteps(ctx context.Context, opts Options, script Script, res *Result, log *zap.Logger) error {
	for _, step := range script {
		log.Debug("browser step", zap.String("op", step.Op), zap.String("arg", step.Arg))
		if err := runStep(ctx, opts, step, res, log); err != nil {
			return err
		}
	}
	return nil
}

func runStep(ctx context.Context, opts Options, step Step, res *Result, log *zap.Logger) error {
	stepCtx := ctx
	if opts.Wait > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, opts.Wait)
		defer cancel()
	}

	switch step.Op {
	case OpNavigate:
		return stepError(step, chromedp.Run(stepCtx, chromedp.Navigate(step.Arg)))
	case OpClick:
		return stepError(step, chromedp.Run(stepCtx, chromedp.Click(step.Arg, chromedp.BySearch)))
	case OpFill:
		return stepError(step, chromedp.Run(stepCtx, chromedp.SendKeys(step.Arg, step.Value, chromedp.BySearch)))
	case OpClear:
		return stepError(step, chromedp.Run(stepCtx, chromedp.Clear(step.Arg, chromedp.BySearch)))
	case OpText:
		var text string
		if err := chromedp.Run(stepCtx, chromedp.Text(step.Arg, &text, chromedp.BySearch)); err != nil {
			return stepError(step, err)
		}
		res.Texts = append(res.Texts, text)
		return nil
	case OpWait:
		return stepError(step, chromedp.Run(stepCtx, chromedp.WaitVisible(step.Arg, chromedp.BySearch)))
	case OpSleep:
		d, _ := time.ParseDuration(step.Value) // validated at parse time
		return stepError(step, chromedp.Run(stepCtx, chromedp.Sleep(d)))
	case OpRefresh:
		return stepError(step, chromedp.Run(stepCtx, chromedp.Reload()))
	case OpExist:
		// a conditional branch, not a failure: absence skips the branch
		if err := chromedp.Run(stepCtx, chromedp.WaitVisible(step.Arg, chromedp.BySearch)); err != nil {
			if !elementAbsent(ctx, err) {
				return stepError(step, err)
			}
			log.Debug("element absent, skipping branch", zap.String("selector", step.Arg))
			return nil
		}
		return runSteps(ctx, opts, step.Then, res, log)
	}
	// unreachable for validated scripts
	return stepError(step, errors.New("unknown op"))
}

// elementAbsent distinguishes a missing element from an aborted run: when
// the parent context is already done, the wait failed because the run was
// stopped, not because the element never appeared.
func elementAbsent(parent context.Context, err error) bool {
	return err != nil && parent.Err() == nil
}

// stepError maps a failed step to the error families the operator sees.
// A deadline on a selector-addressed step means the element never showed up.
func stepError(step Step, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && step.Arg != "" && step.Op != OpNavigate {
		return &ElementNotFoundError{Op: step.Op, Selector: step.Arg, Err: err}
	}
	return &TimeoutError{Op: step.Op, Err: err}
}
