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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo(t *testing.T) {
	tc := []struct {
		name       string
		attempts   int
		delay      time.Duration
		ctxTimeout time.Duration
		fn         func(calls *int) func(context.Context) (string, error)
		want       string
		wantErr    error
		wantCalls  int
	}{
		{
			name:       "try max attempts",
			attempts:   3,
			delay:      10 * time.Millisecond,
			ctxTimeout: time.Second,
			fn: func(calls *int) func(context.Context) (string, error) {
				return func(ctx context.Context) (string, error) {
					*calls++
					return "", errors.New("error")
				}
			},
			wantErr:   errors.New("error"),
			wantCalls: 3,
		},
		{
			name:       "try success",
			attempts:   3,
			delay:      10 * time.Millisecond,
			ctxTimeout: time.Second,
			fn: func(calls *int) func(context.Context) (string, error) {
				return func(ctx context.Context) (string, error) {
					*calls++
					if *calls == 3 {
						return "success", nil
					}
					return "", errors.New("error")
				}
			},
			want:      "success",
			wantCalls: 3,
		},
		{
			name:       "zero attempts",
			attempts:   0,
			delay:      10 * time.Millisecond,
			ctxTimeout: time.Second,
			fn: func(calls *int) func(context.Context) (string, error) {
				return func(ctx context.Context) (string, error) {
					*calls++
					return "", errors.New("error")
				}
			},
			wantErr:   errors.New("error"),
			wantCalls: 1,
		},
		{
			name:       "stop",
			attempts:   3,
			delay:      10 * time.Millisecond,
			ctxTimeout: time.Second,
			fn: func(calls *int) func(context.Context) (string, error) {
				return func(ctx context.Context) (string, error) {
					*calls++
					return "", Stop(errors.New("stop"))
				}
			},
			wantErr:   errors.New("stop"),
			wantCalls: 1,
		},
		{
			name:       "try ctx cancel",
			attempts:   -1,
			delay:      10 * time.Millisecond,
			ctxTimeout: 50 * time.Millisecond,
			fn: func(calls *int) func(context.Context) (string, error) {
				return func(ctx context.Context) (string, error) {
					*calls++
					<-ctx.Done()
					return "", errors.New("error")
				}
			},
			wantErr:   context.DeadlineExceeded,
			wantCalls: 1,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), tt.ctxTimeout)
			defer cancel()

			calls := 0
			res, err := Do(ctx, tt.fn(&calls), tt.attempts, tt.delay)
			assert.Equal(t, tt.want, res)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantCalls, calls)

			calls = 0
			fn := tt.fn(&calls)
			err = DoErr(ctx, func(ctx context.Context) error {
				_, err := fn(ctx)
				return err
			}, tt.attempts, tt.delay)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDoCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, func(ctx context.Context) (int, error) {
		calls++
		return 1, nil
	}, 3, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestStop(t *testing.T) {
	assert.NoError(t, Stop(nil))

	base := errors.New("base")
	wrapped := fmt.Errorf("op: %w", Stop(base))
	calls := 0
	err := DoErr(context.Background(), func(ctx context.Context) error {
		calls++
		return wrapped
	}, 5, time.Millisecond)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)
}
