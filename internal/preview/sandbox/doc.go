/*
Package sandbox runs the scripts of a composed preview document headlessly.

# Overview

The browser iframe is where user code really runs. The server keeps a
headless approximation so it can report console output and script errors
back to the editor even before the browser reports anything. Each run
gets:

  - a fresh goja VM with Node-style globals removed
  - an execution timeout enforced through VM interrupts
  - a document proxy backed by goquery, supporting CSS selectors
  - console capture (log, info, warn, error, debug, alert)

Timers never fire and there is no network or filesystem access.

# Usage

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 4)
	dom, err := sandbox.ParseDOM(html)
	results, err := pool.Run(ctx, dom.Scripts(), dom)
	for _, r := range results {
		fmt.Println(sandbox.Outcome(r.Error), r.Console)
	}

Script failures are data: they end up in Result.Error and never abort the
remaining blocks of the document.
*/
package sandbox
