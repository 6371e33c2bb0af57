package flowcontext

import (
	"github.com/orvnet/orvd/domain/lattice"
	"github.com/orvnet/orvd/domain/lattice/model"
	"github.com/orvnet/orvd/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// FlowContext holds state that is relevant to more than one flow or one peer
type FlowContext struct {
	lattice lattice.Lattice
	network model.Network
}

// New returns a new instance of FlowContext.
func New(lattice lattice.Lattice, network model.Network) *FlowContext {
	return &FlowContext{
		lattice: lattice,
		network: network,
	}
}

// Lattice returns the Lattice of the node
func (f *FlowContext) Lattice() lattice.Lattice {
	return f.lattice
}

// Network returns the outbound network of the node
func (f *FlowContext) Network() model.Network {
	return f.network
}

// HandleError handles an error that stopped a flow. A closed route means
// the peer disconnected; anything else is logged.
func (*FlowContext) HandleError(err error, flowName string) {
	if errors.Is(err, router.ErrRouteClosed) {
		log.Debugf("Flow %s stopped: %s", flowName, err)
		return
	}
	log.Errorf("Flow %s failed: %+v", flowName, err)
}
