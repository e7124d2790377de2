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

package ufile

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourceCache   = "cache"
	sourceBackend = "backend"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unifile",
			Name:      "file_operations_total",
			Help:      "Completed file operations by source of the data.",
		},
		[]string{"operation", "source"},
	)
	resolveErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unifile",
			Name:      "resolve_errors_total",
			Help:      "File operations that failed to resolve the URI.",
		},
		[]string{"operation"},
	)
)

// RegisterMetrics registers the metrics of the package. Registering them
// more than once with the same registerer is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{operationsTotal, resolveErrorsTotal} {
		err := reg.Register(c)
		are := prometheus.AlreadyRegisteredError{}
		if errors.As(err, &are) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
