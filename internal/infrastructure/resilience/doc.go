/*
Package resilience provides a circuit breaker for calls to external
services such as the remote challenge index.

# Usage

	breaker := resilience.New("challenge-index", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	resp, err := resilience.Execute(breaker, func() (*resty.Response, error) {
		return client.R().SetContext(ctx).Get(url)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open

Time is read from Settings.Clock so tests can drive transitions with a
fake clock.
*/
package resilience
