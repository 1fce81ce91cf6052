package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
	"github.com/papercomputeco/gauntlet/pkg/storage/inmemory"
	"github.com/papercomputeco/gauntlet/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	storagetest.DriverContract(func() storage.Driver {
		return inmemory.NewDriver()
	})

	It("returns copies that callers cannot mutate", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()

		created, err := d.CreateOperation(ctx, storagetest.NewOperation("copy"))
		Expect(err).NotTo(HaveOccurred())
		created.Name = "mutated"

		got, err := d.GetOperation(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("copy"))
	})

	It("orders messages by commit time even with a frozen wall clock", func() {
		ctx := context.Background()
		frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		d := inmemory.NewDriver(inmemory.WithClock(storage.NewClock(func() time.Time { return frozen })))

		a, err := d.CreateMessage(ctx, &operation.Message{OperationID: "op", Role: operation.RoleOperator, Content: "a"})
		Expect(err).NotTo(HaveOccurred())
		b, err := d.CreateMessage(ctx, &operation.Message{OperationID: "op", Role: operation.RoleTarget, Content: "b"})
		Expect(err).NotTo(HaveOccurred())

		Expect(b.CommittedAt.After(a.CommittedAt)).To(BeTrue())
	})
})
