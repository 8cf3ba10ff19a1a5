// Package model holds the wire types declared in the connector's OpenAPI document.
package model

type SigningCredentialType string

const (
	SigningCredentialKeychainRef SigningCredentialType = "CACTUS_KEYCHAIN_REF"
	SigningCredentialNone        SigningCredentialType = "NONE"
)

type SigningCredential struct {
	Type        SigningCredentialType `json:"type"`
	KeychainID  string                `json:"keychainId,omitempty"`
	KeychainRef string                `json:"keychainRef,omitempty"`
}

type DeployContractSolidityBytecodeV1Request struct {
	ContractName      string             `json:"contractName,omitempty"`
	ContractAbi       []any              `json:"contractAbi,omitempty"`
	Bytecode          string             `json:"bytecode"`
	ConstructorArgs   []any              `json:"constructorArgs,omitempty"`
	SigningCredential *SigningCredential `json:"signingCredential,omitempty"`
	KeychainID        string             `json:"keychainId,omitempty"`
	Gas               *float64           `json:"gas,omitempty"`
	TimeoutMs         *float64           `json:"timeoutMs,omitempty"`
}

type ChiaTransactionReceipt struct {
	TransactionID   string `json:"transactionId"`
	ContractAddress string `json:"contractAddress,omitempty"`
	Status          string `json:"status"`
	BlockHeight     *int64 `json:"blockHeight,omitempty"`
}

type DeployContractSolidityBytecodeV1Response struct {
	DeploymentID       string                 `json:"deploymentId,omitempty"`
	TransactionReceipt ChiaTransactionReceipt `json:"transactionReceipt"`
}
