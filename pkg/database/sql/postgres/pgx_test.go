// beacon-consensus-oracle
// Copyright © 2022 Cerc

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
package postgres_test

import (
	"context"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql/postgres"
)

var _ = Describe("Pgx", func() {

	var (
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Resolving the driver type", func() {
		Context("When the string names a known driver", func() {
			It("Should resolve it", func() {
				driver, err := postgres.ResolveDriverType("pgx")
				Expect(err).To(BeNil())
				Expect(driver).To(Equal(postgres.PGX))

				driver, err = postgres.ResolveDriverType("pgxpool")
				Expect(err).To(BeNil())
				Expect(driver).To(Equal(postgres.PGX))
			})
		})
		Context("When the string is unknown", func() {
			It("Should provide an error", func() {
				_, err := postgres.ResolveDriverType("sqlite")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Connecting to the DB", Label("integration"), func() {
		Context("But connection is unsucessful", func() {
			It("throws error when can't connect to the database", func() {
				_, err := postgres.NewPostgresDB(postgres.Config{
					Driver: "PGX",
				})
				Expect(err).To(HaveOccurred())

				present, err := doesContainsSubstring(err.Error(), sql.DbConnectionFailedMsg)
				Expect(present).To(BeTrue())
				Expect(err).NotTo(HaveOccurred())
			})
		})
		Context("The connection is successful", func() {
			It("Should create a DB object", func() {
				db, err := postgres.NewPostgresDB(postgres.DefaultConfig)
				Expect(err).To(BeNil())
				defer db.Close()

				var one int
				err = db.QueryRow(ctx, `SELECT 1`).Scan(&one)
				Expect(err).To(BeNil())
				Expect(one).To(Equal(1))
			})
		})
	})
})

func doesContainsSubstring(full string, sub string) (bool, error) {
	if !strings.Contains(full, sub) {
		return false, fmt.Errorf("Expected \"%v\" to contain substring \"%v\"\n", full, sub)
	}
	return true, nil
}
