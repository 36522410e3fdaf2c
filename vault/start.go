package vault

import (
	"errors"
	"fmt"
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

const (
	// chaincodeExecModeEnv is the environment variable that specifies the execution mode of the chaincode.
	chaincodeExecModeEnv = "CHAINCODE_EXEC_MODE"
	// chaincodeExecModeServer runs the chaincode as an external service.
	chaincodeExecModeServer = "server"
	// chaincodeCcIDEnv is the environment variable that holds the chaincode ID.
	chaincodeCcIDEnv = "CHAINCODE_ID"
	// chaincodeServerDefaultPort is the default port on which the chaincode server listens if no other port is specified.
	chaincodeServerDefaultPort = "9999"
	// chaincodeServerPortEnv is the environment variable that specifies the port on which the chaincode server listens.
	chaincodeServerPortEnv = "CHAINCODE_SERVER_PORT"

	tlsKeyFileEnv           = "CHAINCODE_TLS_KEY_FILE"
	tlsCertFileEnv          = "CHAINCODE_TLS_CERT_FILE"
	tlsClientCACertsFileEnv = "CHAINCODE_TLS_CLIENT_CA_CERTS_FILE"
)

// Start runs the chaincode under the peer, or as a chaincode server when
// CHAINCODE_EXEC_MODE=server.
func (cc *Chaincode) Start() error {
	if os.Getenv(chaincodeExecModeEnv) != chaincodeExecModeServer {
		return shim.Start(cc)
	}

	srv, err := cc.server()
	if err != nil {
		return err
	}
	return srv.Start()
}

func (cc *Chaincode) server() (*shim.ChaincodeServer, error) {
	ccID := os.Getenv(chaincodeCcIDEnv)
	if ccID == "" {
		return nil, errors.New("need to specify chaincode id if running as server")
	}

	port := os.Getenv(chaincodeServerPortEnv)
	if port == "" {
		port = chaincodeServerDefaultPort
	}

	tlsProps, err := tlsProperties()
	if err != nil {
		return nil, fmt.Errorf("failed obtaining tls properties for chaincode server: %w", err)
	}

	return &shim.ChaincodeServer{
		CCID:     ccID,
		Address:  "0.0.0.0:" + port,
		CC:       cc,
		TLSProps: tlsProps,
	}, nil
}

func tlsProperties() (shim.TLSProperties, error) {
	tlsProps := shim.TLSProperties{Disabled: true}

	key, err := readOptionalFile(tlsKeyFileEnv)
	if err != nil {
		return tlsProps, err
	}
	cert, err := readOptionalFile(tlsCertFileEnv)
	if err != nil {
		return tlsProps, err
	}
	clientCACerts, err := readOptionalFile(tlsClientCACertsFileEnv)
	if err != nil {
		return tlsProps, err
	}

	if key != nil && cert != nil {
		tlsProps.Disabled = false
		tlsProps.Key = key
		tlsProps.Cert = cert
		tlsProps.ClientCACerts = clientCACerts
	}

	return tlsProps, nil
}

func readOptionalFile(env string) ([]byte, error) {
	name := os.Getenv(env)
	if name == "" {
		return nil, nil
	}

	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", env, err)
	}
	return b, nil
}
