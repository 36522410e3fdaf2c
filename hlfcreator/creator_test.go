package hlfcreator

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	pb "github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/msp"
	"github.com/stretchr/testify/require"
)

const userCert = `MIICSjCCAfGgAwIBAgIRAKeZTS2c/qkXBN0Vkh+0WYQwCgYIKoZIzj0EAwIwgYcx
CzAJBgNVBAYTAlVTMRMwEQYDVQQIEwpDYWxpZm9ybmlhMRYwFAYDVQQHEw1TYW4g
RnJhbmNpc2NvMSMwIQYDVQQKExphdG9teXplLnVhdC5kbHQuYXRvbXl6ZS5jaDEm
MCQGA1UEAxMdY2EuYXRvbXl6ZS51YXQuZGx0LmF0b215emUuY2gwHhcNMjAxMDEz
MDg1NjAwWhcNMzAxMDExMDg1NjAwWjB3MQswCQYDVQQGEwJVUzETMBEGA1UECBMK
Q2FsaWZvcm5pYTEWMBQGA1UEBxMNU2FuIEZyYW5jaXNjbzEPMA0GA1UECxMGY2xp
ZW50MSowKAYDVQQDDCFVc2VyMTBAYXRvbXl6ZS51YXQuZGx0LmF0b215emUuY2gw
WTATBgcqhkjOPQIBBggqhkjOPQMBBwNCAAR3V6z/nVq66HBDxFFN3/3rUaJLvHgW
FzoKaA/qZQyV919gdKr82LDy8N2kAYpAcP7dMyxMmmGOPbo53locYWIyo00wSzAO
BgNVHQ8BAf8EBAMCB4AwDAYDVR0TAQH/BAIwADArBgNVHSMEJDAigCBSv0ueZaB3
qWu/AwOtbOjaLd68woAqAklfKKhfu10K+DAKBggqhkjOPQQDAgNHADBEAiBFB6RK
O7huI84Dy3fXeA324ezuqpJJkfQOJWkbHjL+pQIgFKIqBJrDl37uXNd3eRGJTL+o
21ZL8pGXH8h0nHjOF9M=`

const adminCert = `MIICSDCCAe6gAwIBAgIQAJwYy5PJAYSC1i0UgVN5bjAKBggqhkjOPQQDAjCBhzEL
MAkGA1UEBhMCVVMxEzARBgNVBAgTCkNhbGlmb3JuaWExFjAUBgNVBAcTDVNhbiBG
cmFuY2lzY28xIzAhBgNVBAoTGmF0b215emUudWF0LmRsdC5hdG9teXplLmNoMSYw
JAYDVQQDEx1jYS5hdG9teXplLnVhdC5kbHQuYXRvbXl6ZS5jaDAeFw0yMDEwMTMw
ODU2MDBaFw0zMDEwMTEwODU2MDBaMHUxCzAJBgNVBAYTAlVTMRMwEQYDVQQIEwpD
YWxpZm9ybmlhMRYwFAYDVQQHEw1TYW4gRnJhbmNpc2NvMQ4wDAYDVQQLEwVhZG1p
bjEpMCcGA1UEAwwgQWRtaW5AYXRvbXl6ZS51YXQuZGx0LmF0b215emUuY2gwWTAT
BgcqhkjOPQIBBggqhkjOPQMBBwNCAAQGQX9IhgjCtd3mYZ9DUszmUgvubepVMPD5
FlwjCglB2SiWuE2rT/T5tHJsU/Y9ZXFtOOpy/g9tQ/0wxDWwpkbro00wSzAOBgNV
HQ8BAf8EBAMCB4AwDAYDVR0TAQH/BAIwADArBgNVHSMEJDAigCBSv0ueZaB3qWu/
AwOtbOjaLd68woAqAklfKKhfu10K+DAKBggqhkjOPQQDAgNIADBFAiEAoKRQLe4U
FfAAwQs3RCWpevOPq+J8T4KEsYvswKjzfJYCIAs2kOmN/AsVUF63unXJY0k9ktfD
fAaqNRaboY1Yg1iQ`

const mspID = "mspID"

type creatorStub []byte

func (c creatorStub) GetCreator() ([]byte, error) {
	return c, nil
}

func Test_CallerAddress(t *testing.T) {
	tests := []struct {
		name    string
		creator []byte
		cert    string
		wantErr bool
	}{
		{name: "nil creator", creator: nil, wantErr: true},
		{name: "wrong creator", creator: []byte{12}, wantErr: true},
		{name: "admin creator", creator: BuildCreator(t, mspID, adminCert), cert: adminCert},
		{name: "client creator", creator: BuildCreator(t, mspID, userCert), cert: userCert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CallerAddress(creatorStub(tt.creator))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want, err := AddressFromCertificate(parseCert(t, tt.cert))
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestAddressesDiffer(t *testing.T) {
	admin, err := CallerAddress(creatorStub(BuildCreator(t, mspID, adminCert)))
	require.NoError(t, err)

	user, err := CallerAddress(creatorStub(BuildCreator(t, "otherMSP", userCert)))
	require.NoError(t, err)

	require.NotEqual(t, admin, user)
}

func TestAddressFromCertificateEmpty(t *testing.T) {
	_, err := AddressFromCertificate(nil)
	require.ErrorIs(t, err, ErrNoCertificate)

	_, err = AddressFromCertificate(&x509.Certificate{})
	require.ErrorIs(t, err, ErrNoCertificate)
}

func parseCert(t *testing.T, certBase64 string) *x509.Certificate {
	der, err := base64.StdEncoding.DecodeString(certBase64)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func BuildCreator(t *testing.T, creatorMSP string, creatorCert string) []byte {
	cert, err := base64.StdEncoding.DecodeString(creatorCert)
	require.NoError(t, err)
	pemblock := &pem.Block{Type: "CERTIFICATE", Bytes: cert}
	pemBytes := pem.EncodeToMemory(pemblock)
	require.NotNil(t, pemblock)

	creator := &msp.SerializedIdentity{Mspid: creatorMSP, IdBytes: pemBytes}
	marshaledIdentity, err := pb.Marshal(creator)
	require.NoError(t, err)
	return marshaledIdentity
}
