package cachestub

import (
	"sort"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

type writeElement struct {
	value     []byte
	isDeleted bool
}

type event struct {
	name    string
	payload []byte
}

// TxCacheStub buffers the writes and events of one operation on top of a
// chaincode stub. Nothing reaches the underlying stub until Commit, so an
// operation that fails part way leaves state untouched.
type TxCacheStub struct {
	shim.ChaincodeStubInterface
	txWriteCache map[string]*writeElement
	events       []event
}

// NewTxCacheStub wraps stub with an empty write cache.
func NewTxCacheStub(stub shim.ChaincodeStubInterface) *TxCacheStub {
	return &TxCacheStub{
		ChaincodeStubInterface: stub,
		txWriteCache:           make(map[string]*writeElement),
	}
}

// GetState returns state from TxCacheStub cache or, if absent, from chaincode state
func (bts *TxCacheStub) GetState(key string) ([]byte, error) {
	existsElement, ok := bts.txWriteCache[key]
	if ok {
		if existsElement.isDeleted {
			return nil, nil
		}
		return existsElement.value, nil
	}
	return bts.ChaincodeStubInterface.GetState(key)
}

// PutState puts state to the TxCacheStub's cache
func (bts *TxCacheStub) PutState(key string, value []byte) error {
	bts.txWriteCache[key] = &writeElement{value: value}
	return nil
}

// DelState marks state in TxCacheStub as deleted
func (bts *TxCacheStub) DelState(key string) error {
	bts.txWriteCache[key] = &writeElement{isDeleted: true}
	return nil
}

// SetEvent records an event to be emitted on Commit
func (bts *TxCacheStub) SetEvent(name string, payload []byte) error {
	bts.events = append(bts.events, event{name: name, payload: payload})
	return nil
}

// Commit flushes cached writes in key order, then the recorded events, to
// the underlying stub and resets the cache.
func (bts *TxCacheStub) Commit() error {
	writeKeys := make([]string, 0, len(bts.txWriteCache))
	for k := range bts.txWriteCache {
		writeKeys = append(writeKeys, k)
	}
	sort.Strings(writeKeys)

	for _, key := range writeKeys {
		element := bts.txWriteCache[key]
		if element.isDeleted {
			if err := bts.ChaincodeStubInterface.DelState(key); err != nil {
				return err
			}
			continue
		}
		if err := bts.ChaincodeStubInterface.PutState(key, element.value); err != nil {
			return err
		}
	}

	for _, e := range bts.events {
		if err := bts.ChaincodeStubInterface.SetEvent(e.name, e.payload); err != nil {
			return err
		}
	}

	bts.txWriteCache = make(map[string]*writeElement)
	bts.events = nil

	return nil
}
