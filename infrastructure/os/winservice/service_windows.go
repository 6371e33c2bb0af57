package winservice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/winsvc/eventlog"
	"github.com/btcsuite/winsvc/mgr"
	"github.com/btcsuite/winsvc/svc"
	"github.com/orvnet/orvd/infrastructure/config"
	"github.com/orvnet/orvd/infrastructure/os/signal"
	"github.com/orvnet/orvd/version"
	"github.com/pkg/errors"
)

const (
	controlTimeout      = 10 * time.Second
	controlPollInterval = 300 * time.Millisecond
)

// Service runs orvd under the windows service control manager
type Service struct {
	main        MainFunc
	description *ServiceDescription
	cfg         *config.Config
	eventLog    *eventlog.Log
}

func newService(main MainFunc, description *ServiceDescription, cfg *config.Config) *Service {
	return &Service{
		main:        main,
		description: description,
		cfg:         cfg,
	}
}

// Start hands control to the service control manager and returns once the
// service stopped
func (s *Service) Start() error {
	eventLog, err := eventlog.Open(s.description.Name)
	if err != nil {
		return errors.WithStack(err)
	}
	s.eventLog = eventLog
	defer s.eventLog.Close()

	err = svc.Run(s.description.Name, s)
	if err != nil {
		s.eventLog.Error(1, fmt.Sprintf("Service start failed: %s", err))
		return errors.WithStack(err)
	}
	return nil
}

// Execute implements svc.Handler. It runs the node's main in the background
// and translates control requests into a shutdown request.
func (s *Service) Execute(args []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const acceptedCommands = svc.AcceptStop | svc.AcceptShutdown
	changes <- svc.Status{State: svc.StartPending}

	mainDone := make(chan error)
	started := make(chan struct{})
	spawn("Service.Execute-main", func() {
		mainDone <- s.main(started)
	})
	changes <- svc.Status{State: svc.Running, Accepts: acceptedCommands}

	stopping := false
	for {
		select {
		case request := <-requests:
			switch request.Cmd {
			case svc.Interrogate:
				changes <- request.CurrentStatus
			case svc.Stop, svc.Shutdown:
				if stopping {
					continue
				}
				stopping = true
				changes <- svc.Status{State: svc.StopPending}
				log.Infof("Service %s received a stop request", s.description.Name)
				signal.ShutdownRequestChannel <- struct{}{}
			default:
				s.eventLog.Error(1, fmt.Sprintf("Unexpected control request #%d.", request.Cmd))
			}

		case <-started:
			s.eventLog.Info(1, s.startMessage())

		case err := <-mainDone:
			if err != nil {
				s.eventLog.Error(1, err.Error())
			}
			changes <- svc.Status{State: svc.Stopped}
			return false, 0
		}
	}
}

func (s *Service) startMessage() string {
	lines := []string{
		fmt.Sprintf("%s version %s", s.description.DisplayName, version.Version()),
		fmt.Sprintf("Network: %s", s.cfg.NetParams().Name),
		fmt.Sprintf("Configuration file: %s", s.cfg.ConfigFile),
		fmt.Sprintf("Data directory: %s", s.cfg.DataDir),
		fmt.Sprintf("Database type: %s", s.cfg.DbType),
	}
	if s.cfg.RepresentativeKey != nil {
		lines = append(lines, fmt.Sprintf("Representative: %s", s.cfg.RepresentativeKey.Account()))
	}
	return strings.Join(lines, "\n")
}

func (s *Service) performServiceCommand(command string) error {
	commands := map[string]func() error{
		"install": s.install,
		"remove":  s.remove,
		"start":   s.startService,
		"stop": func() error {
			return s.control(svc.Stop, svc.Stopped)
		},
	}
	run, ok := commands[command]
	if !ok {
		return errors.Errorf("invalid service command [%s]", command)
	}
	return run()
}

// withService connects to the service manager and runs f on this service
func (s *Service) withService(f func(service *mgr.Service) error) error {
	serviceManager, err := mgr.Connect()
	if err != nil {
		return errors.WithStack(err)
	}
	defer serviceManager.Disconnect()

	service, err := serviceManager.OpenService(s.description.Name)
	if err != nil {
		return errors.Errorf("could not access service %s: %s", s.description.Name, err)
	}
	defer service.Close()

	return f(service)
}

func (s *Service) install() error {
	// os.Args[0] lacks the path and extension under cmd.exe
	exePath, err := filepath.Abs(os.Args[0])
	if err != nil {
		return errors.WithStack(err)
	}
	if filepath.Ext(exePath) == "" {
		exePath += ".exe"
	}

	serviceManager, err := mgr.Connect()
	if err != nil {
		return errors.WithStack(err)
	}
	defer serviceManager.Disconnect()

	existing, err := serviceManager.OpenService(s.description.Name)
	if err == nil {
		existing.Close()
		return errors.Errorf("service %s already exists", s.description.Name)
	}

	service, err := serviceManager.CreateService(s.description.Name, exePath, mgr.Config{
		DisplayName: s.description.DisplayName,
		Description: s.description.Description,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	defer service.Close()

	// Messages are written through the EventCreate.exe message file, so no
	// message catalog is needed.
	eventlog.Remove(s.description.Name)
	eventsSupported := uint32(eventlog.Error | eventlog.Warning | eventlog.Info)
	return eventlog.InstallAsEventCreate(s.description.Name, eventsSupported)
}

// remove uninstalls the service. The event log source is kept so existing
// entries stay readable.
func (s *Service) remove() error {
	return s.withService(func(service *mgr.Service) error {
		return errors.WithStack(service.Delete())
	})
}

func (s *Service) startService() error {
	return s.withService(func(service *mgr.Service) error {
		err := service.Start(os.Args)
		if err != nil {
			return errors.Errorf("could not start service: %s", err)
		}
		return nil
	})
}

// control sends c to the service and waits up to controlTimeout for it to
// reach state to
func (s *Service) control(c svc.Cmd, to svc.State) error {
	return s.withService(func(service *mgr.Service) error {
		status, err := service.Control(c)
		if err != nil {
			return errors.Errorf("could not send control=%d: %s", c, err)
		}

		deadline := time.Now().Add(controlTimeout)
		for status.State != to {
			if time.Now().After(deadline) {
				return errors.Errorf("timeout waiting for service to go to state=%d", to)
			}
			time.Sleep(controlPollInterval)
			status, err = service.Query()
			if err != nil {
				return errors.Errorf("could not retrieve service status: %s", err)
			}
		}
		return nil
	})
}
