package sui

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Transactions are handed to the wallet as serialized transaction data (version 2),
// the JSON form wallets rebuild with Transaction.from. Pure inputs are BCS encoded
// here. Objects stay unresolved: the wallet fills in versions and gas payment.
const TRANSACTION_DATA_VERSION = 2

var ErrInvalidTarget = errors.New("invalid move call target")

// Argument references a transaction input, the gas coin or a previous command result.
type Argument struct {
	Kind         string     `json:"$kind"`
	GasCoin      bool       `json:"GasCoin,omitempty"`
	Input        *uint16    `json:"Input,omitempty"`
	Result       *uint16    `json:"Result,omitempty"`
	NestedResult *[2]uint16 `json:"NestedResult,omitempty"`
}

func GasCoin() Argument {
	return Argument{Kind: "GasCoin", GasCoin: true}
}

func InputArg(index uint16) Argument {
	return Argument{Kind: "Input", Input: &index}
}

func ResultArg(command uint16) Argument {
	return Argument{Kind: "Result", Result: &command}
}

func NestedResultArg(command uint16, result uint16) Argument {
	return Argument{Kind: "NestedResult", NestedResult: &[2]uint16{command, result}}
}

type PureArg struct {
	Bytes string `json:"bytes"`
}

type UnresolvedObject struct {
	ObjectID string `json:"objectId"`
}

type CallArg struct {
	Kind             string            `json:"$kind"`
	Pure             *PureArg          `json:"Pure,omitempty"`
	UnresolvedObject *UnresolvedObject `json:"UnresolvedObject,omitempty"`
}

// PureBytes decodes a pure input. It is nil for object inputs.
func (arg CallArg) PureBytes() []byte {
	if arg.Pure == nil {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(arg.Pure.Bytes)
	if err != nil {
		return nil
	}
	return decoded
}

type ProgrammableMoveCall struct {
	Package       string     `json:"package"`
	Module        string     `json:"module"`
	Function      string     `json:"function"`
	TypeArguments []string   `json:"typeArguments"`
	Arguments     []Argument `json:"arguments"`
}

type SplitCoins struct {
	Coin    Argument   `json:"coin"`
	Amounts []Argument `json:"amounts"`
}

type Command struct {
	Kind       string                `json:"$kind"`
	MoveCall   *ProgrammableMoveCall `json:"MoveCall,omitempty"`
	SplitCoins *SplitCoins           `json:"SplitCoins,omitempty"`
}

type GasData struct {
	Budget  *string `json:"budget"`
	Price   *string `json:"price"`
	Owner   *string `json:"owner"`
	Payment []any   `json:"payment"`
}

type Transaction struct {
	Version    int       `json:"version"`
	Sender     *string   `json:"sender"`
	Expiration any       `json:"expiration"`
	GasData    GasData   `json:"gasData"`
	Inputs     []CallArg `json:"inputs"`
	Commands   []Command `json:"commands"`

	err error
}

func NewTransaction(sender string, gas_budget uint64) *Transaction {
	tx := &Transaction{
		Version:  TRANSACTION_DATA_VERSION,
		Inputs:   []CallArg{},
		Commands: []Command{},
	}
	if sender != "" {
		tx.Sender = &sender
	}
	if gas_budget > 0 {
		budget := fmt.Sprint(gas_budget)
		tx.GasData.Budget = &budget
	}
	return tx
}

func (tx *Transaction) addInput(arg CallArg) Argument {
	tx.Inputs = append(tx.Inputs, arg)
	return InputArg(uint16(len(tx.Inputs) - 1))
}

func (tx *Transaction) Pure(bcs []byte) Argument {
	return tx.addInput(CallArg{Kind: "Pure", Pure: &PureArg{Bytes: base64.StdEncoding.EncodeToString(bcs)}})
}

func (tx *Transaction) PureU64(value uint64) Argument {
	return tx.Pure(BcsU64(value))
}

func (tx *Transaction) PureBool(value bool) Argument {
	return tx.Pure(BcsBool(value))
}

func (tx *Transaction) PureString(value string) Argument {
	return tx.Pure(BcsString(value))
}

// Object references an object by id. The same object is only added once.
func (tx *Transaction) Object(id string) Argument {
	for i, input := range tx.Inputs {
		if input.UnresolvedObject != nil && input.UnresolvedObject.ObjectID == id {
			return InputArg(uint16(i))
		}
	}
	return tx.addInput(CallArg{Kind: "UnresolvedObject", UnresolvedObject: &UnresolvedObject{ObjectID: id}})
}

// SplitCoins splits amounts off coin and returns the first new coin.
func (tx *Transaction) SplitCoins(coin Argument, amounts ...Argument) Argument {
	tx.Commands = append(tx.Commands, Command{
		Kind:       "SplitCoins",
		SplitCoins: &SplitCoins{Coin: coin, Amounts: amounts},
	})
	return NestedResultArg(uint16(len(tx.Commands)-1), 0)
}

// MoveCall calls target, written <package>::<module>::<function>.
func (tx *Transaction) MoveCall(target string, arguments ...Argument) Argument {
	parts := strings.Split(target, "::")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		tx.err = fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	call := &ProgrammableMoveCall{TypeArguments: []string{}, Arguments: arguments}
	if len(parts) == 3 {
		call.Package, call.Module, call.Function = parts[0], parts[1], parts[2]
	}
	tx.Commands = append(tx.Commands, Command{Kind: "MoveCall", MoveCall: call})
	return ResultArg(uint16(len(tx.Commands) - 1))
}

// Input resolves an Input argument to its call argument.
func (tx *Transaction) Input(arg Argument) (CallArg, bool) {
	if arg.Input == nil || int(*arg.Input) >= len(tx.Inputs) {
		return CallArg{}, false
	}
	return tx.Inputs[*arg.Input], true
}

// MoveCalls lists the Move calls in command order.
func (tx *Transaction) MoveCalls() []ProgrammableMoveCall {
	calls := []ProgrammableMoveCall{}
	for _, command := range tx.Commands {
		if command.MoveCall != nil {
			calls = append(calls, *command.MoveCall)
		}
	}
	return calls
}

func (tx *Transaction) Err() error {
	return tx.err
}

// JSON serializes the transaction for the wallet.
func (tx *Transaction) JSON() (string, error) {
	if tx.err != nil {
		return "", tx.err
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return string(payload), nil
}

func BcsU64(value uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, value)
}

func BcsBool(value bool) []byte {
	if value {
		return []byte{1}
	}
	return []byte{0}
}

// BcsString encodes a Move String: ULEB128 length then UTF-8 bytes.
func BcsString(value string) []byte {
	return append(binary.AppendUvarint(nil, uint64(len(value))), value...)
}
