//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/daemon"
	"github.com/eliteGoblin/focusd/appgate/internal/domain"
	"github.com/eliteGoblin/focusd/appgate/internal/infra"
	"github.com/eliteGoblin/focusd/appgate/internal/policy"
	"github.com/eliteGoblin/focusd/appgate/internal/usecase"
	"github.com/eliteGoblin/focusd/appgate/test/fixtures"
)

const fakeAppName = "appgatefake"

// execContext is one side of the app: its own store handle over the shared
// directory and its own services, as a separate process would have.
type execContext struct {
	store      *infra.FileStore
	state      *usecase.StateStore
	shield     *infra.ProcessShield
	recorder   *usecase.Recorder
	scheduler  *usecase.UnblockScheduler
	router     *usecase.Router
	foreground *usecase.Foreground
}

func newExecContext(dir string, clock domain.Clock, logger *zap.Logger) *execContext {
	store, err := infra.NewFileStore(dir)
	Expect(err).NotTo(HaveOccurred())

	c := &execContext{store: store}
	c.state = usecase.NewStateStore(store, logger)
	c.shield = infra.NewProcessShield(store, infra.NewProcessManager(), policy.NewRegistry(), logger)
	controller := usecase.NewRestrictionController(c.shield, logger)
	c.recorder = usecase.NewRecorder(store, clock, logger)
	dispatcher := usecase.NewDispatcher(infra.NewDesktopNotifier(store, logger), logger)
	effects := usecase.NewEffects(c.state, controller, c.recorder, dispatcher, logger)
	c.scheduler = usecase.NewUnblockScheduler(c.state, effects, clock, logger)
	c.router = usecase.NewRouter(c.state, effects, clock, usecase.DefaultRoutePolicy(), logger)
	c.foreground = usecase.NewForeground(c.state, c.scheduler, controller, logger)
	return c
}

func kinds(events []domain.BehavioralEvent) map[domain.EventKind]int {
	counts := map[domain.EventKind]int{}
	for _, e := range events {
		counts[e.Kind]++
	}
	return counts
}

var _ = Describe("Unblock lifecycle", func() {
	var (
		ctx        context.Context
		tmpDir     string
		clock      *manualClock
		foreground *execContext
		monitorCtx *execContext
		monitor    *daemon.Monitor
		fakeApp    *fixtures.FakeApp
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		tmpDir, err = os.MkdirTemp("", "appgate-integration-*")
		Expect(err).NotTo(HaveOccurred())

		logger := zap.NewNop()
		clock = &manualClock{now: time.Date(2024, 3, 4, 10, 0, 0, 0, time.Local)}
		storeDir := filepath.Join(tmpDir, "store")
		foreground = newExecContext(storeDir, clock, logger)
		monitorCtx = newExecContext(storeDir, clock, logger)

		config := daemon.DefaultMonitorConfig()
		config.PollInterval = 50 * time.Millisecond
		monitor = daemon.NewMonitor(config, monitorCtx.router, monitorCtx.shield, monitorCtx.state, clock, logger)

		fakeApp = fixtures.NewFakeApp(tmpDir, fakeAppName)
		Expect(fakeApp.Install()).To(Succeed())

		_, err = foreground.foreground.AddApp(ctx, fakeAppName)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		fakeApp.Stop()
		os.RemoveAll(tmpDir)
	})

	Describe("AddApp", func() {
		It("should restrict the app in both contexts", func() {
			tokens, err := monitorCtx.shield.AppliedTokens()
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens).To(Equal([]string{fakeAppName}))
		})
	})

	Describe("Blocked launch", func() {
		Context("when a restricted app starts with no window", func() {
			It("should terminate it and leave a prompt for the foreground", func() {
				monitor.Tick(ctx)

				Expect(fakeApp.Launch()).To(Succeed())
				monitor.Tick(ctx)
				Expect(fakeApp.WaitExit(5 * time.Second)).To(BeTrue())

				prompt, err := foreground.foreground.Activate(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(prompt.ShowIntentPrompt).To(BeTrue())
				Expect(prompt.ReopenTargetApp).To(BeTrue())
				Expect(prompt.Target).NotTo(BeNil())
				Expect(prompt.Target.Token).To(Equal(fakeAppName))
			})
		})
	})

	Describe("Granted window", func() {
		It("should let the app run, then re-block and log the session when it expires", func() {
			index := 0
			w, err := foreground.scheduler.GrantUnblock(ctx, 15, domain.WindowMetadata{
				PurchaseType: domain.PurchasePlanned,
				Category:     "games",
				AppIndex:     &index,
			})
			Expect(err).NotTo(HaveOccurred())

			tokens, err := monitorCtx.shield.AppliedTokens()
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens).To(BeEmpty())

			monitor.Tick(ctx)
			Expect(fakeApp.Launch()).To(Succeed())
			monitor.Tick(ctx)
			Expect(fakeApp.Running()).To(BeTrue())

			session, err := foreground.state.Session()
			Expect(err).NotTo(HaveOccurred())
			Expect(session).NotTo(BeNil())

			clock.Advance(16 * time.Minute)
			monitor.Tick(ctx)

			Expect(fakeApp.WaitExit(5 * time.Second)).To(BeTrue())
			current, err := foreground.scheduler.Current(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(current).To(BeNil())

			events, err := foreground.recorder.Events(ctx, time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(kinds(events)).To(Equal(map[domain.EventKind]int{
				domain.EventUnblockGranted:         1,
				domain.EventShoppingSessionStarted: 1,
				domain.EventUnblockClosed:          1,
				domain.EventShoppingSessionEnded:   1,
			}))
			for _, e := range events {
				if e.Kind == domain.EventUnblockClosed {
					Expect(e.WindowID).To(Equal(w.ID))
					Expect(e.UsageOccurred).To(BeTrue())
					Expect(e.Duration).To(Equal(15 * time.Minute))
				}
			}

			By("delivering the end signal again")
			_, err = monitorCtx.router.Handle(ctx, domain.MonitoringSignal{Kind: domain.SignalIntervalEnd})
			Expect(err).NotTo(HaveOccurred())
			again, err := foreground.recorder.Events(ctx, time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(HaveLen(len(events)))

			By("aggregating the day")
			m := usecase.Aggregate(events, clock.Now().Add(-time.Hour), clock.Now(), usecase.DefaultMetricsOptions())
			Expect(m.TotalUnblocks).To(Equal(1))
			Expect(m.PlannedUnblocks).To(Equal(1))
			Expect(m.UsageRate).To(Equal(100.0))
			Expect(m.MostCommonCategory).To(Equal("games"))
		})

		Context("when the foreground sees the expiry first", func() {
			It("should close the window exactly once", func() {
				_, err := foreground.scheduler.GrantUnblock(ctx, 15, domain.WindowMetadata{})
				Expect(err).NotTo(HaveOccurred())
				monitor.Tick(ctx)

				clock.Advance(20 * time.Minute)
				_, err = foreground.foreground.Activate(ctx)
				Expect(err).NotTo(HaveOccurred())
				monitor.Tick(ctx)

				events, err := foreground.recorder.Events(ctx, time.Time{}, time.Time{})
				Expect(err).NotTo(HaveOccurred())
				Expect(kinds(events)[domain.EventUnblockClosed]).To(Equal(1))

				tokens, err := monitorCtx.shield.AppliedTokens()
				Expect(err).NotTo(HaveOccurred())
				Expect(tokens).To(Equal([]string{fakeAppName}))
			})
		})
	})

	Describe("Run", func() {
		It("should stop when the context is cancelled", func() {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- monitor.Run(runCtx) }()

			cancel()
			Eventually(done, 2*time.Second).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
