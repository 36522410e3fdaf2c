/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: [Default license](LICENSE)
*/

// Package stub mocked provides APIs for the chaincode to access its state
// variables, transaction context and call other chaincodes.
package stub

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang/protobuf/proto" //nolint:staticcheck
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/hyperledger/fabric-protos-go/msp"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ErrFuncNotImplemented is returned when a function is not implemented
const ErrFuncNotImplemented = "function %s is not implemented"

// Peer is a chaincode reachable through InvokeChaincode.
type Peer interface {
	MockInvoke(txID string, args [][]byte) pb.Response
}

// PeerFunc adapts a function to the Peer interface.
type PeerFunc func(args [][]byte) pb.Response

// MockInvoke calls f(args).
func (f PeerFunc) MockInvoke(_ string, args [][]byte) pb.Response {
	return f(args)
}

// Stub is an implementation of ChaincodeStubInterface for unit testing chaincode.
// Methods the vault never calls are left to the embedded nil interface and
// panic when used.
type Stub struct {
	shim.ChaincodeStubInterface

	cc           shim.Chaincode
	Args         [][]byte          // arguments the stub was called with
	Name         string            // A nice name that can be used for logging
	State        map[string][]byte // State keeps name value pairs
	keys         []string          // sorted State keys
	Invokables   map[string]Peer
	TxID         string // stores a transaction uuid while being Invoked / Deployed
	TxTimestamp  *timestamppb.Timestamp
	ChannelID    string // stores a channel ID of the proposal
	Events       []*pb.ChaincodeEvent
	creator      []byte
	transientMap map[string][]byte
}

// NewMockStub - Constructor to config the internal State map
func NewMockStub(name string, cc shim.Chaincode) *Stub {
	return &Stub{
		Name:         name,
		cc:           cc,
		State:        make(map[string][]byte),
		Invokables:   make(map[string]Peer),
		ChannelID:    name,
		transientMap: make(map[string][]byte),
	}
}

// GetTxID returns the transaction ID for the current chaincode invocation request.
func (stub *Stub) GetTxID() string {
	return stub.TxID
}

// GetChannelID returns the channel ID for the proposal for the current chaincode invocation request.
func (stub *Stub) GetChannelID() string {
	return stub.ChannelID
}

// GetArgs returns the arguments for the chaincode invocation request.
func (stub *Stub) GetArgs() [][]byte {
	return stub.Args
}

// GetStringArgs returns the arguments for the chaincode invocation request as strings.
func (stub *Stub) GetStringArgs() []string {
	strargs := make([]string, 0, len(stub.Args))
	for _, barg := range stub.Args {
		strargs = append(strargs, string(barg))
	}
	return strargs
}

// GetFunctionAndParameters returns the first argument as the function name and the rest of the arguments as parameters in a string array.
func (stub *Stub) GetFunctionAndParameters() (function string, params []string) {
	allArgs := stub.GetStringArgs()
	params = []string{}
	if len(allArgs) >= 1 {
		function = allArgs[0]
		params = allArgs[1:]
	}
	return
}

// MockTransactionStart is used to indicate to a chaincode that it is part of a transaction.
// The transaction timestamp is kept if it was set explicitly.
func (stub *Stub) MockTransactionStart(txID string) {
	stub.TxID = txID
	if stub.TxTimestamp == nil {
		stub.TxTimestamp = timestamppb.New(time.Now().UTC())
	}
}

// MockTransactionEnd ends a mocked transaction, clearing the UUID.
func (stub *Stub) MockTransactionEnd(_ string) {
	stub.TxID = ""
	stub.transientMap = make(map[string][]byte)
}

// SetTxTime fixes the timestamp reported by GetTxTimestamp.
func (stub *Stub) SetTxTime(t time.Time) {
	stub.TxTimestamp = timestamppb.New(t)
}

// MockPeerChaincode registers a peer chaincode with this Stub.
func (stub *Stub) MockPeerChaincode(invokableChaincodeName string, peer Peer) {
	stub.Invokables[invokableChaincodeName] = peer
}

// MockPeerChaincodeWithChannel registers a peer chaincode reachable on another channel.
func (stub *Stub) MockPeerChaincodeWithChannel(invokableChaincodeName string, peer Peer, channel string) {
	if channel != "" {
		invokableChaincodeName = invokableChaincodeName + "/" + channel
	}
	stub.Invokables[invokableChaincodeName] = peer
}

// MockInit initializes this chaincode, also starts and ends a transaction.
func (stub *Stub) MockInit(uuid string, args [][]byte) pb.Response {
	stub.Args = args
	stub.MockTransactionStart(uuid)
	if stub.cc == nil {
		panic(errors.New("can't init stub (shim.Chaincode) when stub.cc is nil"))
	}
	res := stub.cc.Init(stub)
	stub.MockTransactionEnd(uuid)
	return res
}

// MockInvoke invokes this chaincode, also starts and ends a transaction.
func (stub *Stub) MockInvoke(uuid string, args [][]byte) pb.Response {
	stub.Args = args
	stub.MockTransactionStart(uuid)
	if stub.cc == nil {
		panic(errors.New("can't invoke stub (shim.Chaincode) when stub.cc is nil"))
	}
	res := stub.cc.Invoke(stub)
	stub.MockTransactionEnd(uuid)
	return res
}

// MockInvokeWithTransient invokes this chaincode with a transient map.
func (stub *Stub) MockInvokeWithTransient(uuid string, args [][]byte, transient map[string][]byte) pb.Response {
	stub.SetTransient(transient)
	return stub.MockInvoke(uuid, args)
}

// GetState retrieves the value for a given key from the Ledger
func (stub *Stub) GetState(key string) ([]byte, error) {
	return stub.State[key], nil
}

// PutState writes the specified `value` and `key` into the Ledger.
func (stub *Stub) PutState(key string, value []byte) error {
	if stub.TxID == "" {
		return errors.New("cannot PutState without a transactions - call stub.MockTransactionStart()?")
	}

	// If the value is nil or empty, delete the key
	if len(value) == 0 {
		return stub.DelState(key)
	}

	if _, ok := stub.State[key]; !ok {
		i := sort.SearchStrings(stub.keys, key)
		stub.keys = append(stub.keys, "")
		copy(stub.keys[i+1:], stub.keys[i:])
		stub.keys[i] = key
	}
	stub.State[key] = value

	return nil
}

// DelState removes the specified `key` and its value from the Ledger.
func (stub *Stub) DelState(key string) error {
	if _, ok := stub.State[key]; !ok {
		return nil
	}
	delete(stub.State, key)

	i := sort.SearchStrings(stub.keys, key)
	stub.keys = append(stub.keys[:i], stub.keys[i+1:]...)

	return nil
}

// GetStateByPartialCompositeKey function can be invoked by a chaincode to query the
// state based on a given partial composite key.
func (stub *Stub) GetStateByPartialCompositeKey(objectType string, attributes []string) (shim.StateQueryIteratorInterface, error) {
	partialCompositeKey, err := stub.CreateCompositeKey(objectType, attributes)
	if err != nil {
		return nil, err
	}
	return NewMockStateRangeQueryIterator(stub, partialCompositeKey, partialCompositeKey+string(utf8.MaxRune)), nil
}

// CreateCompositeKey combines the list of attributes
// to form a composite key.
func (stub *Stub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	return createCompositeKey(objectType, attributes)
}

// SplitCompositeKey splits the composite key into attributes
// on which the composite key was formed.
func (stub *Stub) SplitCompositeKey(compositeKey string) (string, []string, error) {
	return splitCompositeKey(compositeKey)
}

// InvokeChaincode calls a peer chaincode registered with MockPeerChaincode.
func (stub *Stub) InvokeChaincode(chaincodeName string, args [][]byte, channel string) pb.Response {
	// Internally we use chaincode name as a composite name
	if channel != "" && channel != stub.ChannelID {
		chaincodeName = chaincodeName + "/" + channel
	}

	otherStub, ok := stub.Invokables[chaincodeName]
	if !ok {
		return shim.Error(fmt.Sprintf("chaincode %s not found", chaincodeName))
	}

	return otherStub.MockInvoke(stub.TxID, args)
}

// SetCreatorCert sets creator cert
func (stub *Stub) SetCreatorCert(creatorMSP string, creatorCert []byte) error {
	creator, err := BuildCreator(creatorMSP, creatorCert)
	if err != nil {
		return err
	}
	stub.creator = creator
	return nil
}

// BuildCreator serializes an MSP identity the way the peer passes it to chaincode.
func BuildCreator(creatorMSP string, creatorCert []byte) ([]byte, error) {
	pemblock := &pem.Block{Type: "CERTIFICATE", Bytes: creatorCert}
	pemBytes := pem.EncodeToMemory(pemblock)
	if pemBytes == nil {
		return nil, errors.New("encoding of identity failed")
	}

	creator := &msp.SerializedIdentity{Mspid: creatorMSP, IdBytes: pemBytes}
	return proto.Marshal(creator)
}

// GetCreator returns creator.
func (stub *Stub) GetCreator() ([]byte, error) {
	return stub.creator, nil
}

// SetTransient replaces the transient map of the current proposal.
func (stub *Stub) SetTransient(transient map[string][]byte) {
	stub.transientMap = transient
}

// GetTransient returns transient.
func (stub *Stub) GetTransient() (map[string][]byte, error) {
	return stub.transientMap, nil
}

// GetTxTimestamp returns timestamp.
func (stub *Stub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	if stub.TxTimestamp == nil {
		return nil, errors.New("timestamp was not set")
	}
	return stub.TxTimestamp, nil
}

// SetEvent allows the chaincode to set an event
func (stub *Stub) SetEvent(name string, payload []byte) error {
	if name == "" {
		return errors.New("event name can not be empty string")
	}
	stub.Events = append(stub.Events, &pb.ChaincodeEvent{EventName: name, Payload: payload})
	return nil
}

// NewCreatorCert generates a self-signed P-256 certificate usable as a
// transaction creator. It returns the DER certificate.
func NewCreatorCert(commonName string) ([]byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"custody"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour), //nolint:gomnd
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	return x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
}

/*****************************
 Range Query Iterator
*****************************/

// StateRangeQueryIterator is an interface that is used to iterate over a set of keys
type StateRangeQueryIterator struct {
	Closed bool
	Stub   *Stub
	keys   []string
}

// HasNext returns true if the range query iterator contains additional keys
// and values.
func (iter *StateRangeQueryIterator) HasNext() bool {
	return !iter.Closed && len(iter.keys) > 0
}

// Next returns the next key and value in the range query iterator.
func (iter *StateRangeQueryIterator) Next() (*queryresult.KV, error) {
	if iter.Closed {
		return nil, errors.New("StateRangeQueryIterator.Next() called after Close()")
	}
	if !iter.HasNext() {
		return nil, errors.New("StateRangeQueryIterator.Next() called when it does not HaveNext()")
	}

	key := iter.keys[0]
	iter.keys = iter.keys[1:]
	value, err := iter.Stub.GetState(key)
	return &queryresult.KV{Key: key, Value: value}, err
}

// Close closes the range query iterator. This should be called when done
// reading from the iterator to free up resources.
func (iter *StateRangeQueryIterator) Close() error {
	if iter.Closed {
		return errors.New("StateRangeQueryIterator.Close() called after Close()")
	}
	iter.Closed = true
	return nil
}

// NewMockStateRangeQueryIterator - Constructor for a StateRangeQueryIterator
func NewMockStateRangeQueryIterator(stub *Stub, startKey string, endKey string) *StateRangeQueryIterator {
	var keys []string
	for _, key := range stub.keys {
		if strings.Compare(key, startKey) >= 0 && strings.Compare(key, endKey) < 0 {
			keys = append(keys, key)
		}
	}

	return &StateRangeQueryIterator{Stub: stub, keys: keys}
}

const (
	minUnicodeRuneValue   = 0            // U+0000
	maxUnicodeRuneValue   = utf8.MaxRune // U+10FFFF - maximum (and unallocated) code point
	compositeKeyNamespace = "\x00"
)

func createCompositeKey(objectType string, attributes []string) (string, error) {
	if err := validateCompositeKeyAttribute(objectType); err != nil {
		return "", err
	}
	ck := compositeKeyNamespace + objectType + string(rune(minUnicodeRuneValue))
	for _, att := range attributes {
		if err := validateCompositeKeyAttribute(att); err != nil {
			return "", err
		}
		ck += att + string(rune(minUnicodeRuneValue))
	}
	return ck, nil
}

func splitCompositeKey(compositeKey string) (string, []string, error) {
	componentIndex := 1
	var components []string
	for i := 1; i < len(compositeKey); i++ {
		if compositeKey[i] == minUnicodeRuneValue {
			components = append(components, compositeKey[componentIndex:i])
			componentIndex = i + 1
		}
	}
	if len(components) == 0 {
		return "", nil, fmt.Errorf("invalid composite key %q", compositeKey)
	}
	return components[0], components[1:], nil
}

func validateCompositeKeyAttribute(str string) error {
	if !utf8.ValidString(str) {
		return errors.New("not a valid utf8 string: [" + str + "]")
	}
	for index, runeValue := range str {
		if runeValue == minUnicodeRuneValue || runeValue == maxUnicodeRuneValue {
			return fmt.Errorf(`input contain unicode %#U starting at position [%d]. %#U and %#U are not allowed in the input attribute of a composite key`,
				runeValue, index, minUnicodeRuneValue, maxUnicodeRuneValue)
		}
	}
	return nil
}
