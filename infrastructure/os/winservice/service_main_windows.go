package winservice

import (
	"github.com/btcsuite/winsvc/svc"
	"github.com/orvnet/orvd/infrastructure/config"
)

func init() {
	WinServiceMain = serviceMain
}

func serviceMain(main MainFunc, description *ServiceDescription, cfg *config.Config) (bool, error) {
	service := newService(main, description, cfg)

	if command := cfg.ServiceOptions.ServiceCommand; command != "" {
		log.Infof("Running service command '%s' for %s", command, description.Name)
		err := service.performServiceCommand(command)
		if err != nil {
			log.Errorf("Service command '%s' failed: %s", command, err)
		}
		return true, err
	}

	// An interactive session, or one that cannot be identified, runs orvd
	// in the foreground.
	isInteractive, err := svc.IsAnInteractiveSession()
	if err != nil || isInteractive {
		return false, err
	}

	log.Infof("Starting as windows service %s", description.Name)
	return true, service.Start()
}
