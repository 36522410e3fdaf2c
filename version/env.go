package version

import (
	"fmt"
	"os"
)

const envChaincodeIDName = "CORE_CHAINCODE_ID_NAME"

// files a peer operator usually asks for when debugging an endorser
var systemFiles = []string{
	"/etc/issue",
	"/etc/resolv.conf",
	"/etc/timezone",
	"/proc/meminfo",
	"/proc/cpuinfo",
	"/proc/loadavg",
	"/proc/version",
	"/proc/uptime",
	"/etc/hyperledger/fabric/client.crt",
	"/etc/hyperledger/fabric/peer.crt",
}

// CoreChaincodeIDName returns the name and version the peer launched the
// chaincode under.
func CoreChaincodeIDName() string {
	name := os.Getenv(envChaincodeIDName)
	if name == "" {
		return fmt.Sprintf("'%s' is empty", envChaincodeIDName)
	}

	return name
}

// SystemEnv reads the system files of the chaincode container. A file that
// cannot be read is reported by its error.
func SystemEnv() map[string]string {
	return readFiles(systemFiles)
}

func readFiles(names []string) map[string]string {
	res := make(map[string]string, len(names))
	for _, name := range names {
		b, err := os.ReadFile(name)
		switch {
		case err != nil:
			res[name] = fmt.Sprintf("error:'%v'", err)
		case len(b) == 0:
			res[name] = "file is empty"
		default:
			res[name] = string(b)
		}
	}
	return res
}
