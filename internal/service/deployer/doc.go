// Package deployer publishes the staged browser bundle to the remote host.
//
// Deployments replace the destination: an existing engine/<version>
// directory is removed before the upload, so the remote side never mixes
// files of two uploads.
package deployer
