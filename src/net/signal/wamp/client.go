package wamp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/wamp"
	webrtc "github.com/pion/webrtc/v2"
	"github.com/rewindnet/rewind/src/net/signal"
	"github.com/sirupsen/logrus"
)

// Client is the player side of the signaling system. It registers a procedure
// named after the player's public key with the WAMP router, so that other
// players can call it to deliver SDP offers, and calls the corresponding
// procedures of other players to deliver its own offers.
type Client struct {
	pubKey   string
	url      string
	config   client.Config
	wamp     *client.Client
	consumer chan signal.OfferPromise
	logger   *logrus.Entry
}

// NewClient connects to the WAMP signaling server at the given address over
// secure websockets. The pubKey doubles as this client's procedure name.
func NewClient(
	server string,
	realm string,
	pubKey string,
	caFile string,
	insecureSkipVerify bool,
	responseTimeout time.Duration,
	logger *logrus.Entry,
) (*Client, error) {

	tlscfg, err := signalTLSConfig(caFile, insecureSkipVerify, logger)
	if err != nil {
		return nil, err
	}

	c := &Client{
		pubKey: pubKey,
		url:    fmt.Sprintf("wss://%s", server),
		config: client.Config{
			Realm:           realm,
			ResponseTimeout: responseTimeout,
			TlsCfg:          tlscfg,
			Logger:          logger,
		},
		consumer: make(chan signal.OfferPromise),
		logger:   logger,
	}

	if err := c.Connect(); err != nil {
		return nil, err
	}

	return c, nil
}

// signalTLSConfig builds the TLS configuration for the websocket connection.
// With a CA file present, its certificate is pinned as the only trusted root
// and the config's ServerName is taken from the certificate subject, so
// self-signed server certs validate even when the CN is not a DNS name.
func signalTLSConfig(caFile string, insecureSkipVerify bool, logger *logrus.Entry) (*tls.Config, error) {
	tlscfg := &tls.Config{}

	if insecureSkipVerify {
		logger.Debug("Accepting any certificate presented by the signal server")
		tlscfg.InsecureSkipVerify = true
		return tlscfg, nil
	}

	if _, err := os.Stat(caFile); os.IsNotExist(err) {
		logger.Debug("No signal certificate file, relying on platform trusted roots")
		return tlscfg, nil
	}

	certPEM, err := ioutil.ReadFile(caFile)
	if err != nil {
		return nil, err
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(certPEM) {
		return nil, errors.New("failed to import signal certificate")
	}
	tlscfg.RootCAs = roots

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, errors.New("failed to decode signal certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}

	logger.Debugf("Trusting certificate %s with CN: %s", caFile, cert.Subject.CommonName)
	tlscfg.ServerName = cert.Subject.CommonName

	return tlscfg, nil
}

// Connect dials the WAMP router. It is a no-op when the connection is already
// up.
func (c *Client) Connect() error {
	if c.wamp != nil && c.wamp.Connected() {
		return nil
	}

	cli, err := client.ConnectNet(context.Background(), c.url, c.config)
	if err != nil {
		return err
	}

	c.wamp = cli

	return nil
}

// ID implements the Signal interface. Clients are addressed by public key.
func (c *Client) ID() string {
	return c.pubKey
}

// Listen implements the Signal interface. It registers this client's
// procedure with the router; incoming offers surface on the Consumer channel.
func (c *Client) Listen() error {
	if err := c.wamp.Register(c.ID(), c.handleOffer, nil); err != nil {
		c.logger.WithError(err).Error("Failed to register signal procedure")
		return err
	}

	c.logger.WithField("procedure", c.ID()).Debug("Registered signal procedure")

	return nil
}

// Offer implements the Signal interface. It calls the target's procedure with
// our SDP offer and blocks until the answer comes back or the response
// timeout elapses.
func (c *Client) Offer(target string, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	raw, err := json.Marshal(offer)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.ResponseTimeout)
	defer cancel()

	result, err := c.wamp.Call(ctx, target, nil, wamp.List{c.pubKey, string(raw)}, nil, nil)
	if err != nil {
		c.logger.WithField("target", target).WithError(err).Error("Offer call failed")
		return nil, err
	}

	sdp, ok := wamp.AsString(result.Arguments[0])
	if !ok {
		return nil, errors.New("offer answer is not a string")
	}

	answer := webrtc.SessionDescription{}
	if err := json.Unmarshal([]byte(sdp), &answer); err != nil {
		return nil, err
	}

	return &answer, nil
}

// Consumer implements the Signal interface. Received offers are wrapped in
// promises carrying a response channel.
func (c *Client) Consumer() <-chan signal.OfferPromise {
	return c.consumer
}

// Close unregisters the client's procedure and drops the router connection.
func (c *Client) Close() error {
	c.wamp.Unregister(c.ID())
	return c.wamp.Close()
}

// handleOffer services an invocation of our procedure: decode the caller's
// SDP, hand it to the stream layer through the consumer channel, and relay
// the answer back as the call result.
func (c *Client) handleOffer(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	if len(inv.Arguments) != 2 {
		return offerError(fmt.Sprintf("expected 2 arguments, got %d", len(inv.Arguments)))
	}

	from, ok := wamp.AsString(inv.Arguments[0])
	if !ok {
		return offerError("caller ID is not a string")
	}

	sdp, ok := wamp.AsString(inv.Arguments[1])
	if !ok {
		return offerError("offer SDP is not a string")
	}

	offer := webrtc.SessionDescription{}
	if err := json.Unmarshal([]byte(sdp), &offer); err != nil {
		return offerError(fmt.Sprintf("decoding offer SDP: %v", err))
	}

	respCh := make(chan signal.OfferPromiseResponse, 1)

	c.consumer <- signal.OfferPromise{
		From:     from,
		Offer:    offer,
		RespChan: respCh,
	}

	select {
	case <-time.After(c.config.ResponseTimeout):
		return offerError("timed out waiting for answer")
	case resp := <-respCh:
		if resp.Error != nil {
			return offerError(resp.Error.Error())
		}

		raw, err := json.Marshal(resp.Answer)
		if err != nil {
			return offerError(fmt.Sprintf("encoding answer SDP: %v", err))
		}

		return client.InvokeResult{Args: wamp.List{string(raw)}}
	}
}

func offerError(msg string) client.InvokeResult {
	return client.InvokeResult{
		Err:  ErrProcessingOffer,
		Args: wamp.List{msg},
	}
}
