package config

const sampleConfig = `[Application Options]

; ------------------------------------------------------------------------------
; Data settings
; ------------------------------------------------------------------------------

; The directory to store data such as the ledger. The network name is
; appended to it.
; datadir=~/.orvd/data

; Database backend {leveldb, bbolt}
; dbtype=leveldb

; ------------------------------------------------------------------------------
; Network
; ------------------------------------------------------------------------------

; Use the test network.
; testnet=1

; Use the development network.
; devnet=1

; Use the simulation test network.
; simnet=1

; Overrides network params from a YAML file (devnet and simnet only).
; override-params-file=

; ------------------------------------------------------------------------------
; Voting
; ------------------------------------------------------------------------------

; File holding the hex encoded private key this node votes with. Leave unset
; to run a node that does not vote.
; representativekey=

; Number of goroutines verifying vote signatures.
; votesworkers=4

; Overrides the period of the election announcement loop.
; electionannounceinterval=500ms

; ------------------------------------------------------------------------------
; Cementing
; ------------------------------------------------------------------------------

; Cementing algorithm {automatic, bounded, unbounded}
; confheightmode=automatic

; Maximum number of blocks cemented in one write transaction.
; cementingbatchsize=4096

; ------------------------------------------------------------------------------
; Debug
; ------------------------------------------------------------------------------

; Debug logging level.
; Valid levels are {trace, debug, info, warn, error, critical}
; You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set
; log level for individual subsystems. Use orvd --debuglevel=show to list
; available subsystems.
; debuglevel=info

; Serve prometheus metrics on the given interface/port.
; metricslisten=127.0.0.1:9090

; The port used to listen for HTTP profile requests. The profile server will
; be disabled if this option is not specified. The profile information can be
; accessed at http://localhost:<profileport>/debug/pprof once running.
; profile=6061
`
