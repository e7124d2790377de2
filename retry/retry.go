// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do calls fn until it returns no error, returns an error wrapped with Stop,
// the number of attempts is exhausted or the context is done. Calls are
// separated by a constant delay. If attempts is negative, Do tries forever.
//
// If the context is done, the context error is returned.
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), attempts int, delay time.Duration) (T, error) {
	var b backoff.BackOff = backoff.NewConstantBackOff(delay)
	if attempts >= 0 {
		b = backoff.WithMaxRetries(b, uint64(max(attempts-1, 0)))
	}
	return backoff.RetryWithData(func() (T, error) {
		if err := ctx.Err(); err != nil {
			return *new(T), backoff.Permanent(err)
		}
		return fn(ctx)
	}, backoff.WithContext(b, ctx))
}

// DoErr is like Do, but for functions that return only an error.
func DoErr(ctx context.Context, fn func(context.Context) error, attempts int, delay time.Duration) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, attempts, delay)
	return err
}

// Stop marks an error as permanent. Do returns it immediately, without the
// mark, instead of trying again.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
